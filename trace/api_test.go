package trace

import (
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	gomock "go.uber.org/mock/gomock"
)

var _ = Describe("Api", func() {
	var (
		mockCtrl *gomock.Controller
		domain   *MockNamedHookable
	)

	BeforeEach(func() {
		Enable()

		mockCtrl = gomock.NewController(GinkgoT())
		domain = NewMockNamedHookable(mockCtrl)
		domain.EXPECT().NumHooks().Return(1).AnyTimes()
		domain.EXPECT().InvokeHook(gomock.Any()).AnyTimes()
	})

	AfterEach(func() {
		Disable()
		mockCtrl.Finish()
	})

	It("should panic if ID is not given", func() {
		domain.EXPECT().Name().Return("domain").AnyTimes()
		Expect(func() {
			StartTask("", "123", domain, "kind", "what", nil)
		}).Should(Panic())
	})

	It("should panic if domain's name is empty.", func() {
		domain.EXPECT().Name().Return("").AnyTimes()
		Expect(func() {
			StartTask("id", "123", domain, "kind", "what", nil)
		}).Should(Panic())
	})

	It("should panic if kind is empty.", func() {
		domain.EXPECT().Name().Return("domain").AnyTimes()
		Expect(func() {
			StartTask("id", "123", domain, "", "what", nil)
		}).Should(Panic())
	})

	It("should panic if what is empty.", func() {
		domain.EXPECT().Name().Return("domain").AnyTimes()
		Expect(func() {
			StartTask("id", "123", domain, "kind", "", nil)
		}).Should(Panic())
	})

	It("should drop tasks while tracing is disabled", func() {
		Disable()

		silentDomain := NewMockNamedHookable(mockCtrl)

		StartTask("id", "123", silentDomain, "kind", "what", nil)
		AddTaskStep("id", silentDomain, "step")
		FailTask("id", silentDomain, errors.New("some error"))
		EndTask("id", silentDomain)
	})

	It("should skip domains without hooks", func() {
		idleDomain := NewMockNamedHookable(mockCtrl)
		idleDomain.EXPECT().NumHooks().Return(0).AnyTimes()

		StartTask("id", "123", idleDomain, "kind", "what", nil)
		EndTask("id", idleDomain)
	})

	It("should report the error of a failed task", func() {
		hook := &captureHook{}
		d := NewDomain("disk")
		d.AcceptHook(hook)

		FailTask("id", d, errors.New("disk full"))

		Expect(hook.ctxs).To(HaveLen(1))
		Expect(hook.ctxs[0].Pos).To(BeIdenticalTo(HookPosTaskFail))

		task := hook.ctxs[0].Item.(Task)
		Expect(task.ID).To(Equal("id"))
		Expect(task.Error).To(Equal("disk full"))
	})

	It("should tolerate failing a task without an error", func() {
		hook := &captureHook{}
		d := NewDomain("disk")
		d.AcceptHook(hook)

		FailTask("id", d, nil)

		Expect(hook.ctxs).To(HaveLen(1))

		task := hook.ctxs[0].Item.(Task)
		Expect(task.Error).To(BeEmpty())
	})
})

package trace

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	gomock "go.uber.org/mock/gomock"

	"github.com/tracekit/tracekit/core"
)

var _ = Describe("TotalTimeTracer", func() {
	var (
		mockCtrl   *gomock.Controller
		timeTeller *MockTimeTeller
		t          *TotalTimeTracer
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		timeTeller = NewMockTimeTeller(mockCtrl)

		t = NewTotalTimeTracer(timeTeller,
			func(_ Task) bool { return true })
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	It("should sum up the task time", func() {
		timeTeller.EXPECT().CurrentTime().Return(core.VTimeInSec(1))
		t.StartTask(Task{ID: "1"})
		timeTeller.EXPECT().CurrentTime().Return(core.VTimeInSec(1.5))
		t.StartTask(Task{ID: "2"})

		timeTeller.EXPECT().CurrentTime().Return(core.VTimeInSec(2))
		t.EndTask(Task{ID: "1"})
		timeTeller.EXPECT().CurrentTime().Return(core.VTimeInSec(3))
		t.EndTask(Task{ID: "2"})

		Expect(t.TotalTime()).To(Equal(core.VTimeInSec(2.5)))
	})

	It("should include failed tasks", func() {
		timeTeller.EXPECT().CurrentTime().Return(core.VTimeInSec(1))
		t.StartTask(Task{ID: "1"})

		timeTeller.EXPECT().CurrentTime().Return(core.VTimeInSec(2))
		t.FailTask(Task{ID: "1", Error: "some error"})

		Expect(t.TotalTime()).To(Equal(core.VTimeInSec(1)))
	})

	It("should ignore unknown tasks", func() {
		timeTeller.EXPECT().CurrentTime().Return(core.VTimeInSec(2))
		t.EndTask(Task{ID: "1"})

		Expect(t.TotalTime()).To(Equal(core.VTimeInSec(0)))
	})
})

var _ = Describe("AverageTimeTracer", func() {
	var (
		mockCtrl   *gomock.Controller
		timeTeller *MockTimeTeller
		t          *AverageTimeTracer
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		timeTeller = NewMockTimeTeller(mockCtrl)

		t = NewAverageTimeTracer(timeTeller,
			func(_ Task) bool { return true })
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	It("should average the task time", func() {
		timeTeller.EXPECT().CurrentTime().Return(core.VTimeInSec(1))
		t.StartTask(Task{ID: "1"})
		timeTeller.EXPECT().CurrentTime().Return(core.VTimeInSec(1.5))
		t.StartTask(Task{ID: "2"})

		timeTeller.EXPECT().CurrentTime().Return(core.VTimeInSec(2))
		t.EndTask(Task{ID: "1"})
		timeTeller.EXPECT().CurrentTime().Return(core.VTimeInSec(3))
		t.EndTask(Task{ID: "2"})

		Expect(t.AverageTime()).To(Equal(core.VTimeInSec(1.25)))
		Expect(t.TotalCount()).To(Equal(uint64(2)))
	})

	It("should filter out tasks", func() {
		t.filter = func(task Task) bool { return task.Kind == "req" }

		timeTeller.EXPECT().CurrentTime().Return(core.VTimeInSec(1))
		t.StartTask(Task{ID: "1", Kind: "tick"})

		timeTeller.EXPECT().CurrentTime().Return(core.VTimeInSec(2))
		t.EndTask(Task{ID: "1"})

		Expect(t.TotalCount()).To(Equal(uint64(0)))
	})
})

package trace

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	gomock "go.uber.org/mock/gomock"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/tracekit/tracekit/core"
)

var _ = Describe("LogTracer", func() {
	var (
		mockCtrl   *gomock.Controller
		timeTeller *MockTimeTeller
		logs       *observer.ObservedLogs
		t          *LogTracer
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		timeTeller = NewMockTimeTeller(mockCtrl)

		var zapCore zapcore.Core
		zapCore, logs = observer.New(zapcore.DebugLevel)
		t = NewLogTracer(zap.New(zapCore), timeTeller)
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	It("should log task starts at debug level", func() {
		timeTeller.EXPECT().CurrentTime().Return(core.VTimeInSec(1))
		t.StartTask(Task{ID: "1", Kind: "req", What: "GET /", Where: "api"})

		entries := logs.All()
		Expect(entries).To(HaveLen(1))
		Expect(entries[0].Level).To(Equal(zapcore.DebugLevel))
		Expect(entries[0].Message).To(Equal("task started"))

		fields := entries[0].ContextMap()
		Expect(fields["id"]).To(Equal("1"))
		Expect(fields["kind"]).To(Equal("req"))
		Expect(fields["what"]).To(Equal("GET /"))
		Expect(fields["where"]).To(Equal("api"))
	})

	It("should log steps", func() {
		t.StepTask(Task{ID: "1", Steps: []TaskStep{{What: "parse"}}})

		entries := logs.All()
		Expect(entries).To(HaveLen(1))
		Expect(entries[0].Message).To(Equal("task step"))
		Expect(entries[0].ContextMap()["step"]).To(Equal("parse"))
	})

	It("should ignore steps without a milestone", func() {
		t.StepTask(Task{ID: "1"})

		Expect(logs.Len()).To(Equal(0))
	})

	It("should log task ends with a duration", func() {
		timeTeller.EXPECT().CurrentTime().Return(core.VTimeInSec(1))
		t.StartTask(Task{ID: "1", Kind: "req", What: "GET /"})

		timeTeller.EXPECT().CurrentTime().Return(core.VTimeInSec(3.5))
		t.EndTask(Task{ID: "1"})

		entries := logs.All()
		Expect(entries).To(HaveLen(2))
		Expect(entries[1].Level).To(Equal(zapcore.DebugLevel))
		Expect(entries[1].Message).To(Equal("task finished"))
		Expect(entries[1].ContextMap()["duration"]).To(Equal(2.5))
	})

	It("should log failures at error level", func() {
		timeTeller.EXPECT().CurrentTime().Return(core.VTimeInSec(1))
		t.StartTask(Task{ID: "1", Kind: "req", What: "GET /"})

		timeTeller.EXPECT().CurrentTime().Return(core.VTimeInSec(2))
		t.FailTask(Task{ID: "1", Error: "connection reset"})

		entries := logs.All()
		Expect(entries).To(HaveLen(2))
		Expect(entries[1].Level).To(Equal(zapcore.ErrorLevel))
		Expect(entries[1].Message).To(Equal("task failed"))
		Expect(entries[1].ContextMap()["error"]).To(Equal("connection reset"))
	})

	It("should ignore tasks that never started", func() {
		timeTeller.EXPECT().CurrentTime().Return(core.VTimeInSec(2))
		t.EndTask(Task{ID: "unknown"})

		Expect(logs.Len()).To(Equal(0))
	})
})

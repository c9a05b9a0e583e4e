package trace

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func swapDefaultLogger(logger *zap.Logger) *zap.Logger {
	defaultLoggerLock.Lock()
	defer defaultLoggerLock.Unlock()

	old := defaultLogger
	defaultLogger = logger

	return old
}

var _ = Describe("Msg", func() {
	var (
		logs      *observer.ObservedLogs
		oldLogger *zap.Logger
	)

	BeforeEach(func() {
		var zapCore zapcore.Core
		zapCore, logs = observer.New(zapcore.DebugLevel)
		oldLogger = swapDefaultLogger(zap.New(zapCore))

		Enable()
	})

	AfterEach(func() {
		swapDefaultLogger(oldLogger)
		Disable()
	})

	It("should log through the default logger", func() {
		Msg(zapcore.InfoLevel, "cache warmed", zap.Int("entries", 42))

		entries := logs.All()
		Expect(entries).To(HaveLen(1))
		Expect(entries[0].Level).To(Equal(zapcore.InfoLevel))
		Expect(entries[0].Message).To(Equal("cache warmed"))
		Expect(entries[0].ContextMap()["entries"]).To(Equal(int64(42)))
	})

	It("should drop messages while tracing is disabled", func() {
		Disable()

		Msg(zapcore.InfoLevel, "cache warmed")

		Expect(logs.Len()).To(Equal(0))
	})

	It("should attach a stack trace above info level", func() {
		Msg(zapcore.ErrorLevel, "cache corrupted")

		entries := logs.All()
		Expect(entries).To(HaveLen(1))
		Expect(entries[0].Stack).ToNot(BeEmpty())
	})

	It("should not attach a stack trace at info level", func() {
		Msg(zapcore.InfoLevel, "cache warmed")

		entries := logs.All()
		Expect(entries).To(HaveLen(1))
		Expect(entries[0].Stack).To(BeEmpty())
	})
})

var _ = Describe("Setup", func() {
	AfterEach(func() {
		swapDefaultLogger(zap.NewNop())
		Disable()
	})

	It("should enable tracing", func() {
		Disable()

		_, err := Setup()

		Expect(err).ToNot(HaveOccurred())
		Expect(IsEnabled()).To(BeTrue())
	})

	It("should install the default logger", func() {
		logger, err := Setup()

		Expect(err).ToNot(HaveOccurred())
		Expect(Logger()).To(BeIdenticalTo(logger))
	})

	It("should write to the log file", func() {
		path := filepath.Join(GinkgoT().TempDir(), "trace.log")

		logger, err := Setup(WithLogFile(path))
		Expect(err).ToNot(HaveOccurred())

		logger.Info("hello")
		_ = logger.Sync()

		content, err := os.ReadFile(path)
		Expect(err).ToNot(HaveOccurred())
		Expect(string(content)).To(ContainSubstring("hello"))
	})

	It("should fail when the log file cannot be opened", func() {
		_, err := Setup(WithLogFile(GinkgoT().TempDir()))

		Expect(err).To(HaveOccurred())
	})
})

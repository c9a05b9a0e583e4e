package trace

import (
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("SQLiteTraceWriter", func() {
	var (
		dbPath string
		writer *SQLiteTraceWriter
	)

	BeforeEach(func() {
		dbPath = filepath.Join(GinkgoT().TempDir(), "trace")

		writer = NewSQLiteTraceWriter(dbPath)
		writer.Init()
	})

	AfterEach(func() {
		Expect(writer.Close()).To(Succeed())
	})

	It("should refuse to overwrite an existing database", func() {
		Expect(func() {
			NewSQLiteTraceWriter(dbPath).Init()
		}).Should(Panic())
	})

	It("should read back written tasks", func() {
		writer.Write(Task{
			ID:        "1",
			Kind:      "req",
			What:      "GET /",
			Where:     "api",
			StartTime: 1,
			EndTime:   2,
		})
		writer.Write(Task{
			ID:        "2",
			ParentID:  "1",
			Kind:      "query",
			What:      "SELECT",
			Where:     "db",
			StartTime: 1.2,
			EndTime:   1.8,
			Error:     "timeout",
		})
		writer.Flush()

		reader := NewSQLiteTraceReader(dbPath + ".sqlite3")
		reader.Init()
		defer reader.Close()

		tasks := reader.ListTasks(TaskQuery{})
		Expect(tasks).To(HaveLen(2))

		tasks = reader.ListTasks(TaskQuery{ID: "2"})
		Expect(tasks).To(HaveLen(1))
		Expect(tasks[0].ParentID).To(Equal("1"))
		Expect(tasks[0].Kind).To(Equal("query"))
		Expect(tasks[0].Where).To(Equal("db"))
		Expect(tasks[0].Error).To(Equal("timeout"))
	})

	It("should list locations", func() {
		writer.Write(Task{ID: "1", Where: "api", StartTime: 1, EndTime: 2})
		writer.Write(Task{ID: "2", Where: "db", StartTime: 1, EndTime: 2})
		writer.Write(Task{ID: "3", Where: "api", StartTime: 2, EndTime: 3})
		writer.Flush()

		reader := NewSQLiteTraceReader(dbPath + ".sqlite3")
		reader.Init()
		defer reader.Close()

		locations := reader.ListLocations()
		Expect(locations).To(ConsistOf("api", "db"))
	})

	It("should join parent tasks", func() {
		writer.Write(Task{
			ID: "1", Kind: "req", Where: "api", StartTime: 1, EndTime: 3})
		writer.Write(Task{
			ID: "2", ParentID: "1", Kind: "query", Where: "db",
			StartTime: 1.5, EndTime: 2,
		})
		writer.Flush()

		reader := NewSQLiteTraceReader(dbPath + ".sqlite3")
		reader.Init()
		defer reader.Close()

		tasks := reader.ListTasks(TaskQuery{
			ID:               "2",
			EnableParentTask: true,
		})
		Expect(tasks).To(HaveLen(1))
		Expect(tasks[0].ParentTask).ToNot(BeNil())
		Expect(tasks[0].ParentTask.ID).To(Equal("1"))
		Expect(tasks[0].ParentTask.Kind).To(Equal("req"))
	})

	It("should filter by time range", func() {
		writer.Write(Task{ID: "1", Where: "api", StartTime: 1, EndTime: 2})
		writer.Write(Task{ID: "2", Where: "api", StartTime: 5, EndTime: 6})
		writer.Flush()

		reader := NewSQLiteTraceReader(dbPath + ".sqlite3")
		reader.Init()
		defer reader.Close()

		tasks := reader.ListTasks(TaskQuery{
			EnableTimeRange: true,
			StartTime:       0,
			EndTime:         3,
		})
		Expect(tasks).To(HaveLen(1))
		Expect(tasks[0].ID).To(Equal("1"))
	})
})

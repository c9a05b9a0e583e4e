package trace

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/rs/xid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/tracekit/tracekit/core"
)

// MongoDBTracer is a tracer that can dump the tasks into a MongoDB database.
type MongoDBTracer struct {
	client       *mongo.Client
	collect      *mongo.Collection
	uri        string
	timeTeller core.TimeTeller

	lock         sync.Mutex
	tracingTasks map[string]Task
}

// SetURI sets the server and the port to connect to
func (t *MongoDBTracer) SetURI(uri string) {
	t.uri = uri
}

// Init connects to the MongoDB database.
func (t *MongoDBTracer) Init() {
	var err error

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	t.client, err = mongo.Connect(ctx, options.Client().ApplyURI(t.uri))
	if err != nil {
		log.Panic(err)
	}

	dbName := "tracekit_trace_" + xid.New().String()
	log.Printf("Trace is collected in database: %s\n", dbName)

	t.collect = t.client.Database(dbName).Collection("trace")

	t.createIndexes()
}

func (t *MongoDBTracer) createIndexes() {
	t.createIndex("id", true)
	t.createIndex("parentid", true)
	t.createIndex("kind", true)
	t.createIndex("what", true)
	t.createIndex("where", true)
	t.createIndex("starttime", false)
	t.createIndex("endtime", false)
}

func (t *MongoDBTracer) createIndex(key string, useHash bool) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var value interface{}
	if useHash {
		value = "hashed"
	} else {
		value = 1
	}

	_, err := t.collect.Indexes().CreateOne(ctx,
		mongo.IndexModel{
			Keys: bson.D{bson.E{Key: key, Value: value}},
		},
	)
	if err != nil {
		log.Panic(err)
	}
}

// StartTask marks the start of a task.
func (t *MongoDBTracer) StartTask(task Task) {
	task.StartTime = t.timeTeller.CurrentTime()

	t.lock.Lock()
	t.tracingTasks[task.ID] = task
	t.lock.Unlock()
}

// StepTask marks a milestone during the executing of a task.
func (t *MongoDBTracer) StepTask(task Task) {
	// Do nothing for now
}

// FailTask records the task error and ends the task.
func (t *MongoDBTracer) FailTask(task Task) {
	t.lock.Lock()
	originalTask, ok := t.tracingTasks[task.ID]
	if ok {
		originalTask.Error = task.Error
		t.tracingTasks[task.ID] = originalTask
	}
	t.lock.Unlock()

	t.EndTask(task)
}

// EndTask writes the task into the database.
func (t *MongoDBTracer) EndTask(task Task) {
	t.lock.Lock()
	originalTask, ok := t.tracingTasks[task.ID]
	if !ok {
		t.lock.Unlock()
		return
	}

	originalTask.EndTime = t.timeTeller.CurrentTime()
	originalTask.Detail = nil
	delete(t.tracingTasks, task.ID)
	t.lock.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := t.collect.InsertOne(ctx, originalTask)
	if err != nil {
		log.Panic(err)
	}
}

// NewMongoDBTracer returns a new MongoDBTracer
func NewMongoDBTracer(timeTeller core.TimeTeller) *MongoDBTracer {
	t := &MongoDBTracer{
		uri:          "mongodb://localhost:27017",
		timeTeller:   timeTeller,
		tracingTasks: make(map[string]Task),
	}
	return t
}

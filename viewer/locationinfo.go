package viewer

import (
	"encoding/json"
	"log"
	"net/http"
	"sort"
	"strconv"

	"github.com/tracekit/tracekit/trace"
)

type timeValue struct {
	Time  float64 `json:"time"`
	Value float64 `json:"value"`
}

type locationInfo struct {
	Name      string      `json:"name"`
	InfoType  string      `json:"info_type"`
	StartTime float64     `json:"start_time"`
	EndTime   float64     `json:"end_time"`
	Data      []timeValue `json:"data"`
}

func (v *Viewer) httpLocationInfo(w http.ResponseWriter, r *http.Request) {
	location := r.FormValue("where")
	infoType := r.FormValue("info_type")

	startTime, err := strconv.ParseFloat(r.FormValue("start_time"), 64)
	dieOnErr(err)

	endTime, err := strconv.ParseFloat(r.FormValue("end_time"), 64)
	dieOnErr(err)

	numDots, err := strconv.ParseInt(r.FormValue("num_dots"), 10, 32)
	dieOnErr(err)

	var info *locationInfo
	switch infoType {
	case "TaskInCount":
		info = v.calculateTaskRate(
			location, infoType, startTime, endTime, int(numDots),
			func(t trace.Task) float64 { return float64(t.StartTime) },
		)
	case "TaskCompleteCount":
		info = v.calculateTaskRate(
			location, infoType, startTime, endTime, int(numDots),
			func(t trace.Task) float64 { return float64(t.EndTime) },
		)
	case "AvgLatency":
		info = v.calculateAvgLatency(
			location, startTime, endTime, int(numDots))
	case "ConcurrentTask":
		info = v.calculateTimeWeightedTaskCount(
			location, infoType,
			startTime, endTime, int(numDots),
			func(t trace.Task) float64 { return float64(t.StartTime) },
			func(t trace.Task) float64 { return float64(t.EndTime) },
		)
	default:
		log.Panicf("unknown info_type %s\n", infoType)
	}

	rsp, err := json.Marshal(info)
	dieOnErr(err)

	_, err = w.Write(rsp)
	dieOnErr(err)
}

type taskTime func(t trace.Task) float64

func (v *Viewer) listTasksInRange(
	location string,
	startTime, endTime float64,
) []trace.Task {
	query := trace.TaskQuery{
		Where:           location,
		EnableTimeRange: true,
		StartTime:       startTime,
		EndTime:         endTime,
	}

	return v.reader.ListTasks(query)
}

func (v *Viewer) calculateTaskRate(
	location, infoType string,
	startTime, endTime float64,
	numDots int,
	eventTime taskTime,
) *locationInfo {
	tasks := v.listTasksInRange(location, startTime, endTime)

	info := &locationInfo{
		Name:      location,
		InfoType:  infoType,
		StartTime: startTime,
		EndTime:   endTime,
	}

	binDuration := (endTime - startTime) / float64(numDots)
	for i := 0; i < numDots; i++ {
		binStartTime := float64(i)*binDuration + startTime
		binEndTime := float64(i+1)*binDuration + startTime

		taskCount := 0
		for _, t := range tasks {
			time := eventTime(t)
			if time > binStartTime && time < binEndTime {
				taskCount++
			}
		}

		tv := timeValue{
			Time:  binStartTime + 0.5*binDuration,
			Value: float64(taskCount) / binDuration,
		}

		info.Data = append(info.Data, tv)
	}

	return info
}

func (v *Viewer) calculateAvgLatency(
	location string,
	startTime, endTime float64,
	numDots int,
) *locationInfo {
	tasks := v.listTasksInRange(location, startTime, endTime)

	info := &locationInfo{
		Name:      location,
		InfoType:  "AvgLatency",
		StartTime: startTime,
		EndTime:   endTime,
	}

	binDuration := (endTime - startTime) / float64(numDots)
	for i := 0; i < numDots; i++ {
		binStartTime := float64(i)*binDuration + startTime
		binEndTime := float64(i+1)*binDuration + startTime

		sum := 0.0
		taskCount := 0
		for _, t := range tasks {
			if float64(t.EndTime) > binStartTime &&
				float64(t.EndTime) < binEndTime {
				sum += float64(t.EndTime - t.StartTime)
				taskCount++
			}
		}

		value := 0.0
		if taskCount > 0 {
			value = sum / float64(taskCount)
		}

		tv := timeValue{
			Time:  binStartTime + 0.5*binDuration,
			Value: value,
		}

		info.Data = append(info.Data, tv)
	}

	return info
}

type timestamp struct {
	time    float64
	isStart bool
}

type timestamps []timestamp

func (ts timestamps) Len() int {
	return len(ts)
}

func (ts timestamps) Less(i, j int) bool {
	return ts[i].time < ts[j].time
}

func (ts timestamps) Swap(i, j int) {
	ts[i], ts[j] = ts[j], ts[i]
}

func (v *Viewer) calculateTimeWeightedTaskCount(
	location, infoType string,
	startTime, endTime float64,
	numDots int,
	increaseTime, decreaseTime taskTime,
) *locationInfo {
	tasks := v.listTasksInRange(location, startTime, endTime)

	info := &locationInfo{
		Name:      location,
		InfoType:  infoType,
		StartTime: startTime,
		EndTime:   endTime,
	}

	binDuration := (endTime - startTime) / float64(numDots)
	for i := 0; i < numDots; i++ {
		binStartTime := float64(i)*binDuration + startTime
		binEndTime := float64(i+1)*binDuration + startTime

		tasksInBin := getTasksInBin(
			tasks,
			binStartTime, binEndTime,
			increaseTime, decreaseTime,
		)
		timestamps := tasksToTimestamps(
			tasksInBin, increaseTime, decreaseTime)
		avgCount := calculateAvgTaskCount(
			timestamps, binStartTime, binEndTime)

		tv := timeValue{
			Time:  binStartTime + 0.5*binDuration,
			Value: avgCount,
		}

		info.Data = append(info.Data, tv)
	}

	return info
}

func calculateAvgTaskCount(
	timestamps timestamps,
	binStartTime, binEndTime float64,
) float64 {
	var count int
	var timeByCount float64
	prevTime := binStartTime

	for _, ts := range timestamps {
		if ts.time < binStartTime {
			if ts.isStart {
				count++
			} else {
				count--
			}
			continue
		} else if ts.time >= binEndTime {
			break
		} else {
			duration := ts.time - prevTime
			if duration < 0 {
				panic("duration is smaller than 0")
			}
			timeByCount += duration * float64(count)
			prevTime = ts.time

			if ts.isStart {
				count++
			} else {
				count--
			}
		}
	}

	duration := binEndTime - prevTime
	timeByCount += duration * float64(count)

	avgCount := timeByCount / (binEndTime - binStartTime)

	return avgCount
}

func tasksToTimestamps(
	tasks []trace.Task,
	taskStart, taskEnd taskTime,
) timestamps {
	timestampList := make(timestamps, 0, len(tasks)*2)

	for _, t := range tasks {
		timestampStart := timestamp{
			time:    taskStart(t),
			isStart: true,
		}

		timestampEnd := timestamp{
			time: taskEnd(t),
		}

		timestampList = append(timestampList, timestampStart, timestampEnd)
	}

	sort.Sort(timestampList)

	return timestampList
}

func getTasksInBin(
	tasks []trace.Task,
	binStart, binEnd float64,
	taskStart, taskEnd taskTime,
) (tasksInBin []trace.Task) {
	for _, t := range tasks {
		if taskEnd(t) < binStart {
			continue
		}

		if taskStart(t) > binEnd {
			continue
		}

		tasksInBin = append(tasksInBin, t)
	}

	return tasksInBin
}

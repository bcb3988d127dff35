package inmemdb

import (
	"sync"

	"github.com/nxtwiseedu/nxtwise-lms/core/course"
	"github.com/nxtwiseedu/nxtwise-lms/core/progress"
)

type (
	DB struct {
		course   *courseTable
		progress *progressTable
	}

	courseTable struct {
		mutex sync.RWMutex
		table map[string]*course.Course
	}

	progressKey struct {
		userID   string
		courseID string
	}

	progressTable struct {
		mutex sync.RWMutex
		table map[progressKey]*progress.Record
	}
)

func Open() *DB {
	return &DB{
		course:   &courseTable{table: make(map[string]*course.Course)},
		progress: &progressTable{table: make(map[progressKey]*progress.Record)},
	}
}

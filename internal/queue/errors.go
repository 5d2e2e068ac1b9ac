package queue

import "errors"

var errJobPanicked = errors.New("queue: job panicked")

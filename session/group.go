package session

import (
	"time"

	"github.com/sirupsen/logrus"
)

// defaultSingleTaskTimeout sizes the group shutdown deadline per queued task.
const defaultSingleTaskTimeout = 500 * time.Millisecond

// Group shares one processor pool between the sessions it creates, so a
// fleet of sessions runs on a fixed set of workers. Sessions created through
// a group do not shut the pool down when they close; Shutdown does.
type Group struct {
	pool   *processorPool
	degree int
	log    *logrus.Entry
}

// NewGroup builds a group whose pool runs with the given worker degree and
// queue capacity; zero values pick the session defaults.
func NewGroup(degree, queueCapacity int, logger *logrus.Entry) *Group {
	if degree <= 0 {
		degree = defaultProcessorDegree
	}
	if queueCapacity <= 0 {
		queueCapacity = defaultQueueCapacity
	}
	if logger == nil {
		logger = logrus.NewEntry(logrus.StandardLogger())
	}
	g := &Group{
		degree: degree,
		log:    logger.WithField("group", newSessionID()),
	}
	g.pool = newProcessorPool(queueCapacity, degree, g.log)
	return g
}

// NewSession builds an unconnected session running on the group's pool.
func (g *Group) NewSession(cfg Settings) *Session {
	return newSession(cfg, g.pool)
}

// QueueDepth reports how many tasks sit in the shared queue.
func (g *Group) QueueDepth() int {
	return g.pool.depth()
}

// Shutdown stops the shared pool, waiting up to
// 1s + singleTaskTimeout × queued/degree before abandoning the workers. A
// non-positive timeout picks the 500 ms default.
func (g *Group) Shutdown(singleTaskTimeout time.Duration) {
	if singleTaskTimeout <= 0 {
		singleTaskTimeout = defaultSingleTaskTimeout
	}
	queued := g.pool.depth()
	wait := time.Second + singleTaskTimeout*time.Duration(queued)/time.Duration(g.degree)
	g.log.Debug("shutting down session group processor pool")
	g.pool.shutdown(wait)
}

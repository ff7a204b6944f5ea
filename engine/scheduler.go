package engine

import (
	"time"

	"github.com/robfig/cron/v3"
)

// InitializeSchedules starts the idle-handle eviction job
func (serverHandler *ServerHandler) InitializeSchedules() *cron.Cron {
	idle := time.Duration(serverHandler.ServerConfig.HandleIdleMinutes) * time.Minute
	if idle <= 0 {
		idle = 10 * time.Minute
	}

	c := cron.New()
	var evictJob cron.Job
	evictJob = cron.FuncJob(func() { serverHandler.evictJobFunc(idle) })
	evictJob = cron.NewChain(cron.SkipIfStillRunning(cron.DefaultLogger)).Then(evictJob) //ensure we don't kick off another if old one is still running
	c.AddJob("@every 1m", evictJob)
	Logger.Info("Adding idle document eviction scheduler", "idle_minutes", idle.Minutes())
	c.Start()
	return c
}

func (serverHandler *ServerHandler) evictJobFunc(idle time.Duration) {
	defer func() {
		if r := recover(); r != nil {
			Logger.Error("Panic recovered in eviction job", "panic", r)
		}
	}()
	if n := serverHandler.Registry.Evict(idle); n > 0 {
		Logger.Info("Evicted idle documents", "count", n, "open", serverHandler.Registry.Len())
	}
}

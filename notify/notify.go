package notify

import (
	"sync"

	"github.com/moyoez/batchupload/tool"
	"github.com/moyoez/batchupload/types"
)

// Hub broadcasts notifications to connected UI clients.
type Hub interface {
	Broadcast(notification *types.Notification)
}

// Dispatcher renders notifications as log lines and forwards them to the
// WebSocket hub and the Unix socket, when configured. It implements
// session.Notifier.
type Dispatcher struct {
	mu         sync.RWMutex
	hub        Hub
	socketPath string
	wg         sync.WaitGroup
}

func NewDispatcher(socketPath string) *Dispatcher {
	return &Dispatcher{socketPath: socketPath}
}

func (d *Dispatcher) SetHub(h Hub) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.hub = h
}

func (d *Dispatcher) Notify(n *types.Notification) {
	if n == nil {
		return
	}
	switch {
	case n.IsFailure():
		tool.DefaultLogger.Errorf("[Notify] %s: %s", n.Title, n.Message)
	case n.Type == types.NotifyTypeSessionUpdate:
		tool.DefaultLogger.Debugf("[Notify] %s", n.Message)
	default:
		tool.DefaultLogger.Infof("[Notify] %s %s", n.Title, n.Message)
	}

	d.mu.RLock()
	hub, socketPath := d.hub, d.socketPath
	d.mu.RUnlock()

	if hub != nil {
		hub.Broadcast(n)
	}
	if socketPath != "" && UseNotify {
		d.wg.Add(1)
		go func() {
			defer d.wg.Done()
			if err := SendNotification(n, socketPath); err != nil {
				tool.DefaultLogger.Debugf("[Notify] Unix socket delivery failed: %v", err)
			}
		}()
	}
}

// Flush waits for pending Unix socket deliveries.
func (d *Dispatcher) Flush() {
	d.wg.Wait()
}

package service

import (
	"context"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/linlihub/linli-backend/internal/domain"
	pkglogger "github.com/linlihub/linli-backend/pkg/logger"
	"github.com/linlihub/linli-backend/pkg/search"
)

var searchIndexDroppedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Name: "search_index_dropped_total",
		Help: "Indexing tasks dropped because the indexer queue was full",
	},
)

const (
	indexOpUpsert = "upsert"
	indexOpDelete = "delete"

	indexerQueueSize = 256
)

type indexTask struct {
	op     string
	postID string
	doc    map[string]interface{}
}

// Indexer feeds published posts to the search cluster from a background
// worker. Enqueue never blocks the request path: a full queue drops the task
// with a log and a counter, and indexing failures are swallowed after one
// retry. The request lifecycle is fully detached from indexing.
type Indexer struct {
	client    *search.Client
	index     string
	tasks     chan indexTask
	stop      chan struct{}
	stopped   sync.WaitGroup
	startOnce sync.Once
	stopOnce  sync.Once
}

// NewIndexer creates a new Indexer. A nil client disables indexing entirely.
func NewIndexer(client *search.Client, index string) *Indexer {
	return &Indexer{
		client: client,
		index:  index,
		tasks:  make(chan indexTask, indexerQueueSize),
		stop:   make(chan struct{}),
	}
}

// Start launches the background worker
func (ix *Indexer) Start() {
	if ix.client == nil {
		return
	}
	ix.startOnce.Do(func() {
		ix.stopped.Add(1)
		go ix.run()
	})
}

// Stop drains the worker and waits for it to finish
func (ix *Indexer) Stop() {
	if ix.client == nil {
		return
	}
	ix.stopOnce.Do(func() {
		close(ix.stop)
	})
	ix.stopped.Wait()
}

// EnqueuePublished schedules a published post for indexing
func (ix *Indexer) EnqueuePublished(post *domain.Post) {
	if ix.client == nil {
		return
	}
	view := post.View()
	ix.enqueue(indexTask{
		op:     indexOpUpsert,
		postID: post.ID,
		doc: map[string]interface{}{
			"id":         view.ID,
			"category":   view.Category,
			"title":      view.Title,
			"content":    view.Content,
			"created_at": post.CreatedAt,
		},
	})
}

// EnqueueRemoval schedules a post for removal from the index
func (ix *Indexer) EnqueueRemoval(postID string) {
	if ix.client == nil {
		return
	}
	ix.enqueue(indexTask{op: indexOpDelete, postID: postID})
}

func (ix *Indexer) enqueue(task indexTask) {
	select {
	case ix.tasks <- task:
	default:
		searchIndexDroppedTotal.Inc()
		log := pkglogger.WithComponent("indexer")
		log.Warn().Str("post_id", task.postID).Msg("indexer queue full, task dropped")
	}
}

func (ix *Indexer) run() {
	defer ix.stopped.Done()

	for {
		select {
		case task := <-ix.tasks:
			ix.process(task)
		case <-ix.stop:
			// Drain whatever is left before exiting
			for {
				select {
				case task := <-ix.tasks:
					ix.process(task)
				default:
					return
				}
			}
		}
	}
}

// process executes one task with a single retry. Errors are logged and
// swallowed; indexing never surfaces failures to the submission path.
func (ix *Indexer) process(task indexTask) {
	log := pkglogger.WithComponent("indexer")

	var err error
	for attempt := 0; attempt < 2; attempt++ {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		switch task.op {
		case indexOpUpsert:
			err = ix.client.IndexDocument(ctx, ix.index, task.postID, task.doc)
		case indexOpDelete:
			err = ix.client.DeleteDocument(ctx, ix.index, task.postID)
		}
		cancel()
		if err == nil {
			return
		}
	}
	log.Warn().Err(err).Str("post_id", task.postID).Str("op", task.op).Msg("search indexing failed")
}

package service

import (
	"context"
	"encoding/json"

	"rag-knowledge-be/internal/constant"
	"rag-knowledge-be/internal/dto"
	"rag-knowledge-be/internal/pkg/logger"
	"rag-knowledge-be/internal/repository/specification"
	"rag-knowledge-be/internal/repository/unitofwork"
	"rag-knowledge-be/pkg/events"
	"rag-knowledge-be/pkg/nats"
	"rag-knowledge-be/pkg/progress"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/panjf2000/ants/v2"
)

type IWorkerService interface {
	// Consume subscribes to the processing topic and dispatches tasks
	// onto the bounded pool.
	Consume(ctx context.Context) error

	// RetryPending finds documents still in PENDING and re-publishes a
	// processing task for each. Returns the number rescheduled.
	RetryPending(ctx context.Context) (int, error)

	Close()
}

type workerService struct {
	pubSub      *gochannel.GoChannel
	topicName   string
	uowFactory  unitofwork.RepositoryFactory
	processor   IProcessorService
	publisher   IPublisherService
	broadcaster *progress.Broadcaster
	natsPub     *nats.Publisher
	pool        *ants.Pool
	log         logger.ILogger
}

func NewWorkerService(
	pubSub *gochannel.GoChannel,
	topicName string,
	uowFactory unitofwork.RepositoryFactory,
	processor IProcessorService,
	publisher IPublisherService,
	broadcaster *progress.Broadcaster,
	natsPub *nats.Publisher,
	poolSize int,
	log logger.ILogger,
) (IWorkerService, error) {
	if poolSize <= 0 {
		poolSize = 4
	}
	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}
	return &workerService{
		pubSub:      pubSub,
		topicName:   topicName,
		uowFactory:  uowFactory,
		processor:   processor,
		publisher:   publisher,
		broadcaster: broadcaster,
		natsPub:     natsPub,
		pool:        pool,
		log:         log,
	}, nil
}

func (ws *workerService) Close() {
	ws.pool.Release()
}

func (ws *workerService) Consume(ctx context.Context) error {
	messages, err := ws.pubSub.Subscribe(ctx, ws.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			ws.dispatch(ctx, msg)
		}
	}()

	return nil
}

func (ws *workerService) dispatch(ctx context.Context, msg *message.Message) {
	var task dto.ProcessTask
	if err := json.Unmarshal(msg.Payload, &task); err != nil {
		ws.log.Error("worker", "Failed to unmarshal process task", map[string]interface{}{
			"error": err.Error(),
		})
		msg.Ack() // malformed payload, retrying cannot help
		return
	}

	// Submit blocks when the pool is saturated, which backpressures
	// the subscription instead of fanning out unbounded goroutines.
	err := ws.pool.Submit(func() {
		ws.run(ctx, &task)
		msg.Ack()
	})
	if err != nil {
		ws.log.Error("worker", "Failed to submit task to pool", map[string]interface{}{
			"document_id": task.DocumentId,
			"error":       err.Error(),
		})
		msg.Nack() // redeliver
	}
}

func (ws *workerService) run(ctx context.Context, task *dto.ProcessTask) {
	ws.log.Info("worker", "Processing task started", map[string]interface{}{
		"document_id": task.DocumentId,
		"kb_id":       task.KnowledgeBaseId,
		"task_id":     task.TaskId,
	})

	onProgress := func(ctx context.Context, progressValue int, message string) {
		status := constant.StatusForProgress(progressValue)
		uow := ws.uowFactory.NewUnitOfWork(ctx)
		if err := uow.DocumentRepository().UpdateProgress(ctx, task.DocumentId, progressValue, status, ""); err != nil {
			ws.log.Error("worker", "Failed to persist progress", map[string]interface{}{
				"document_id": task.DocumentId,
				"progress":    progressValue,
				"error":       err.Error(),
			})
		}
		ws.broadcaster.Publish(ctx, progress.Update{
			DocumentID: task.DocumentId,
			Progress:   progressValue,
			Status:     string(status),
			Message:    message,
		})
	}

	result := ws.processor.Process(ctx, task, onProgress)
	ws.finalize(ctx, task, result)
}

func (ws *workerService) finalize(ctx context.Context, task *dto.ProcessTask, result *dto.ProcessResult) {
	uow := ws.uowFactory.NewUnitOfWork(ctx)

	doc, err := uow.DocumentRepository().FindOne(ctx, specification.ByID{ID: task.DocumentId})
	if err != nil || doc == nil {
		ws.log.Error("worker", "Failed to load document for finalization", map[string]interface{}{
			"document_id": task.DocumentId,
		})
		return
	}

	if result.Success {
		doc.Status = constant.DocumentStatusCompleted
		doc.Progress = 100
		doc.ErrorMessage = ""
		doc.TextCount = result.TextCount
		doc.ImageCount = result.ImageCount
		doc.TableCount = result.TableCount
		doc.EquationCount = result.EquationCount
		doc.EntityCount = result.EntityCount
		doc.RelationCount = result.RelationCount
	} else {
		doc.Status = constant.DocumentStatusFailed
		doc.ErrorMessage = result.Message
	}

	if err := uow.DocumentRepository().Update(ctx, doc); err != nil {
		ws.log.Error("worker", "Failed to finalize document", map[string]interface{}{
			"document_id": task.DocumentId,
			"error":       err.Error(),
		})
		return
	}

	ws.broadcaster.Publish(ctx, progress.Update{
		DocumentID: task.DocumentId,
		Progress:   doc.Progress,
		Status:     string(doc.Status),
		Message:    result.Message,
	})

	if ws.natsPub != nil {
		var event events.Event
		if result.Success {
			event = events.NewDocumentCompletedEvent(task.DocumentId, task.KnowledgeBaseId, result.EntityCount, result.RelationCount)
		} else {
			event = events.NewDocumentFailedEvent(task.DocumentId, task.KnowledgeBaseId, result.Message)
		}
		if err := ws.natsPub.Publish(ctx, event); err != nil {
			ws.log.Warn("worker", "Failed to publish document event", map[string]interface{}{
				"document_id": task.DocumentId,
				"error":       err.Error(),
			})
		}
	}

	ws.log.Info("worker", "Processing task finished", map[string]interface{}{
		"document_id": task.DocumentId,
		"success":     result.Success,
		"entities":    result.EntityCount,
		"relations":   result.RelationCount,
	})
}

func (ws *workerService) RetryPending(ctx context.Context) (int, error) {
	uow := ws.uowFactory.NewUnitOfWork(ctx)

	docs, err := uow.DocumentRepository().FindAll(ctx,
		specification.ByStatus{Status: constant.DocumentStatusPending},
	)
	if err != nil {
		return 0, err
	}

	rescheduled := 0
	for _, doc := range docs {
		task := dto.ProcessTask{
			DocumentId:      doc.Id,
			KnowledgeBaseId: doc.KnowledgeBaseId,
			FilePath:        doc.OriginalPath,
			TaskId:          doc.TaskId,
		}
		payload, err := json.Marshal(task)
		if err != nil {
			continue
		}
		if err := ws.publisher.Publish(ctx, payload); err != nil {
			ws.log.Error("worker", "Failed to republish pending document", map[string]interface{}{
				"document_id": doc.Id,
				"error":       err.Error(),
			})
			continue
		}
		rescheduled++
	}

	ws.log.Info("worker", "Pending sweep finished", map[string]interface{}{
		"found":       len(docs),
		"rescheduled": rescheduled,
	})
	return rescheduled, nil
}

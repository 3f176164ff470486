package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"rag-knowledge-be/internal/constant"
	"rag-knowledge-be/internal/dto"
	"rag-knowledge-be/internal/entity"
	"rag-knowledge-be/internal/pkg/logger"
	"rag-knowledge-be/pkg/progress"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProcessor struct {
	result        *dto.ProcessResult
	progressSteps []int
	lastTask      *dto.ProcessTask
}

func (p *fakeProcessor) Process(ctx context.Context, task *dto.ProcessTask, onProgress ProgressFunc) *dto.ProcessResult {
	p.lastTask = task
	for _, step := range p.progressSteps {
		onProgress(ctx, step, "working")
	}
	return p.result
}

type capturePublisher struct {
	payloads [][]byte
	err      error
}

func (p *capturePublisher) Publish(ctx context.Context, payload []byte) error {
	if p.err != nil {
		return p.err
	}
	p.payloads = append(p.payloads, payload)
	return nil
}

func newTestWorker(t *testing.T, uow *stubUnitOfWork, processor IProcessorService, publisher IPublisherService) *workerService {
	t.Helper()
	ws, err := NewWorkerService(
		nil,
		"documents.process",
		&stubRepoFactory{uow: uow},
		processor,
		publisher,
		progress.NewBroadcaster(nil, logger.NewNopLogger()),
		nil,
		1,
		logger.NewNopLogger(),
	)
	require.NoError(t, err)
	t.Cleanup(ws.Close)
	return ws.(*workerService)
}

func TestWorkerRunFinalizesSuccess(t *testing.T) {
	uow := newStubUnitOfWork()
	doc := &entity.Document{
		Id:              9,
		Filename:        "report.pdf",
		Status:          constant.DocumentStatusAnalyzing,
		Progress:        40,
		ErrorMessage:    "previous attempt failed",
		KnowledgeBaseId: 5,
	}
	uow.docs.docs = []*entity.Document{doc}

	processor := &fakeProcessor{
		progressSteps: []int{15, 25, 100},
		result: &dto.ProcessResult{
			Success:       true,
			EntityCount:   3,
			RelationCount: 2,
			TextCount:     4,
			ImageCount:    1,
			TableCount:    2,
			Message:       "Processed report.pdf: extracted 3 entities and 2 relations",
		},
	}
	ws := newTestWorker(t, uow, processor, &capturePublisher{})

	ws.run(context.Background(), &dto.ProcessTask{DocumentId: 9, KnowledgeBaseId: 5, FilePath: "/tmp/report.pdf"})

	// Each progress step lands in the document row with its mapped status.
	require.Len(t, uow.docs.writes, 3)
	assert.Equal(t, progressWrite{progress: 15, status: constant.DocumentStatusParsing}, uow.docs.writes[0])
	assert.Equal(t, progressWrite{progress: 100, status: constant.DocumentStatusCompleted}, uow.docs.writes[2])

	require.Len(t, uow.docs.updated, 1)
	assert.Equal(t, constant.DocumentStatusCompleted, doc.Status)
	assert.Equal(t, 100, doc.Progress)
	assert.Empty(t, doc.ErrorMessage)
	assert.Equal(t, 3, doc.EntityCount)
	assert.Equal(t, 2, doc.RelationCount)
	assert.Equal(t, 4, doc.TextCount)
	assert.Equal(t, 1, doc.ImageCount)
	assert.Equal(t, 2, doc.TableCount)
}

func TestWorkerRunFinalizesFailure(t *testing.T) {
	uow := newStubUnitOfWork()
	doc := &entity.Document{
		Id:              9,
		Filename:        "report.pdf",
		Status:          constant.DocumentStatusAnalyzing,
		Progress:        40,
		KnowledgeBaseId: 5,
	}
	uow.docs.docs = []*entity.Document{doc}

	processor := &fakeProcessor{
		progressSteps: []int{15, 25},
		result: &dto.ProcessResult{
			Success: false,
			Message: "Error processing report.pdf: parser crashed",
		},
	}
	ws := newTestWorker(t, uow, processor, &capturePublisher{})

	ws.run(context.Background(), &dto.ProcessTask{DocumentId: 9, KnowledgeBaseId: 5, FilePath: "/tmp/report.pdf"})

	require.Len(t, uow.docs.updated, 1)
	assert.Equal(t, constant.DocumentStatusFailed, doc.Status)
	assert.Equal(t, "Error processing report.pdf: parser crashed", doc.ErrorMessage)
	// Finalization leaves the last recorded progress in place on failure.
	assert.Equal(t, 40, doc.Progress)
}

func TestWorkerRetryPending(t *testing.T) {
	uow := newStubUnitOfWork()
	uow.docs.docs = []*entity.Document{
		{Id: 1, Status: constant.DocumentStatusPending, KnowledgeBaseId: 5, OriginalPath: "/tmp/a.pdf", TaskId: "task-a"},
		{Id: 2, Status: constant.DocumentStatusPending, KnowledgeBaseId: 5, OriginalPath: "/tmp/b.pdf", TaskId: "task-b"},
		{Id: 3, Status: constant.DocumentStatusCompleted, KnowledgeBaseId: 5, OriginalPath: "/tmp/c.pdf"},
	}

	publisher := &capturePublisher{}
	ws := newTestWorker(t, uow, &fakeProcessor{result: &dto.ProcessResult{Success: true}}, publisher)

	count, err := ws.RetryPending(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 2, count)
	require.Len(t, publisher.payloads, 2)

	var task dto.ProcessTask
	require.NoError(t, json.Unmarshal(publisher.payloads[0], &task))
	assert.Equal(t, int64(1), task.DocumentId)
	assert.Equal(t, "/tmp/a.pdf", task.FilePath)
	assert.Equal(t, "task-a", task.TaskId)
}

func TestWorkerDispatchAcksMalformedPayload(t *testing.T) {
	uow := newStubUnitOfWork()
	ws := newTestWorker(t, uow, &fakeProcessor{result: &dto.ProcessResult{Success: true}}, &capturePublisher{})

	msg := message.NewMessage(watermill.NewUUID(), []byte("{not json"))
	ws.dispatch(context.Background(), msg)

	select {
	case <-msg.Acked():
	default:
		t.Fatal("malformed payload should be acknowledged, not redelivered")
	}
	assert.Empty(t, uow.docs.updated)
}

func TestWorkerDispatchRunsTask(t *testing.T) {
	uow := newStubUnitOfWork()
	doc := &entity.Document{Id: 9, Status: constant.DocumentStatusPending, KnowledgeBaseId: 5}
	uow.docs.docs = []*entity.Document{doc}

	processor := &fakeProcessor{result: &dto.ProcessResult{Success: true, EntityCount: 1}}
	ws := newTestWorker(t, uow, processor, &capturePublisher{})

	payload, err := json.Marshal(dto.ProcessTask{DocumentId: 9, KnowledgeBaseId: 5, FilePath: "/tmp/report.pdf"})
	require.NoError(t, err)

	msg := message.NewMessage(watermill.NewUUID(), payload)
	ws.dispatch(context.Background(), msg)

	select {
	case <-msg.Acked():
	case <-time.After(2 * time.Second):
		t.Fatal("dispatched task was not acknowledged")
	}

	require.NotNil(t, processor.lastTask)
	assert.Equal(t, int64(9), processor.lastTask.DocumentId)
	assert.Equal(t, constant.DocumentStatusCompleted, doc.Status)
}

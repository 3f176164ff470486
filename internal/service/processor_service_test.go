package service

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"rag-knowledge-be/internal/config"
	"rag-knowledge-be/internal/constant"
	"rag-knowledge-be/internal/dto"
	"rag-knowledge-be/internal/entity"
	"rag-knowledge-be/internal/pkg/logger"
	"rag-knowledge-be/internal/repository/contract"
	"rag-knowledge-be/internal/repository/specification"
	"rag-knowledge-be/internal/repository/unitofwork"
	"rag-knowledge-be/pkg/graph"
	"rag-knowledge-be/pkg/rag"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type progressWrite struct {
	progress int
	status   constant.DocumentStatus
	message  string
}

type stubDocumentRepo struct {
	docs    []*entity.Document
	updated []*entity.Document
	writes  []progressWrite
}

func (r *stubDocumentRepo) Create(ctx context.Context, doc *entity.Document) error { return nil }

func (r *stubDocumentRepo) Update(ctx context.Context, doc *entity.Document) error {
	r.updated = append(r.updated, doc)
	return nil
}

func (r *stubDocumentRepo) Delete(ctx context.Context, id int64) error { return nil }

func (r *stubDocumentRepo) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Document, error) {
	for _, spec := range specs {
		if byID, ok := spec.(specification.ByID); ok {
			for _, doc := range r.docs {
				if doc.Id == byID.ID {
					return doc, nil
				}
			}
		}
	}
	return nil, nil
}

func (r *stubDocumentRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Document, error) {
	out := make([]*entity.Document, 0, len(r.docs))
	for _, doc := range r.docs {
		match := true
		for _, spec := range specs {
			if byStatus, ok := spec.(specification.ByStatus); ok && doc.Status != byStatus.Status {
				match = false
			}
		}
		if match {
			out = append(out, doc)
		}
	}
	return out, nil
}

func (r *stubDocumentRepo) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	docs, _ := r.FindAll(ctx, specs...)
	return int64(len(docs)), nil
}

func (r *stubDocumentRepo) UpdateProgress(ctx context.Context, id int64, progress int, status constant.DocumentStatus, message string) error {
	r.writes = append(r.writes, progressWrite{progress: progress, status: status, message: message})
	return nil
}

func (r *stubDocumentRepo) DistinctKnowledgeBaseIDs(ctx context.Context) ([]int64, error) {
	return nil, nil
}

func (r *stubDocumentRepo) StatusDistribution(ctx context.Context, kbID int64) (map[constant.DocumentStatus]int64, error) {
	return map[constant.DocumentStatus]int64{}, nil
}

type stubKnowledgeBaseRepo struct {
	kbs map[int64]*entity.KnowledgeBase
}

func (r *stubKnowledgeBaseRepo) Create(ctx context.Context, kb *entity.KnowledgeBase) error { return nil }
func (r *stubKnowledgeBaseRepo) Update(ctx context.Context, kb *entity.KnowledgeBase) error { return nil }
func (r *stubKnowledgeBaseRepo) Delete(ctx context.Context, id int64) error                 { return nil }

func (r *stubKnowledgeBaseRepo) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.KnowledgeBase, error) {
	for _, spec := range specs {
		if byID, ok := spec.(specification.ByID); ok {
			return r.kbs[byID.ID], nil
		}
	}
	return nil, nil
}

func (r *stubKnowledgeBaseRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.KnowledgeBase, error) {
	return nil, nil
}

func (r *stubKnowledgeBaseRepo) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	return 0, nil
}

type stubModelConfigRepo struct {
	configs   map[int64]*entity.ModelConfig
	requested []int64
}

func (r *stubModelConfigRepo) Create(ctx context.Context, mc *entity.ModelConfig) error { return nil }
func (r *stubModelConfigRepo) Update(ctx context.Context, mc *entity.ModelConfig) error { return nil }
func (r *stubModelConfigRepo) Delete(ctx context.Context, id int64) error               { return nil }

func (r *stubModelConfigRepo) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.ModelConfig, error) {
	for _, spec := range specs {
		if byID, ok := spec.(specification.ByID); ok {
			r.requested = append(r.requested, byID.ID)
			return r.configs[byID.ID], nil
		}
	}
	return nil, nil
}

func (r *stubModelConfigRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.ModelConfig, error) {
	return nil, nil
}

type stubUserRepo struct{}

func (r *stubUserRepo) Create(ctx context.Context, user *entity.User) error { return nil }
func (r *stubUserRepo) Update(ctx context.Context, user *entity.User) error { return nil }
func (r *stubUserRepo) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.User, error) {
	return nil, nil
}

type stubUnitOfWork struct {
	docs   *stubDocumentRepo
	kbs    *stubKnowledgeBaseRepo
	models *stubModelConfigRepo
	users  *stubUserRepo
}

func newStubUnitOfWork() *stubUnitOfWork {
	return &stubUnitOfWork{
		docs:   &stubDocumentRepo{},
		kbs:    &stubKnowledgeBaseRepo{kbs: map[int64]*entity.KnowledgeBase{}},
		models: &stubModelConfigRepo{configs: map[int64]*entity.ModelConfig{}},
		users:  &stubUserRepo{},
	}
}

func (u *stubUnitOfWork) Begin(ctx context.Context) error { return nil }
func (u *stubUnitOfWork) Commit() error                   { return nil }
func (u *stubUnitOfWork) Rollback() error                 { return nil }

func (u *stubUnitOfWork) UserRepository() contract.UserRepository { return u.users }
func (u *stubUnitOfWork) DocumentRepository() contract.DocumentRepository {
	return u.docs
}
func (u *stubUnitOfWork) KnowledgeBaseRepository() contract.KnowledgeBaseRepository {
	return u.kbs
}
func (u *stubUnitOfWork) ModelConfigRepository() contract.ModelConfigRepository {
	return u.models
}

type stubRepoFactory struct {
	uow *stubUnitOfWork
}

func (f *stubRepoFactory) NewUnitOfWork(ctx context.Context) unitofwork.UnitOfWork { return f.uow }

type fakeEngine struct {
	stats      rag.ParseStats
	status     string
	data       rag.GraphData
	pairs      []map[string]interface{}
	processErr error
	workDir    string
}

func (e *fakeEngine) ProcessDocument(ctx context.Context, filePath string) (rag.ParseStats, error) {
	return e.stats, e.processErr
}

func (e *fakeEngine) DocStatus(ctx context.Context, filePath string) (string, error) {
	return e.status, nil
}

func (e *fakeEngine) GraphData(ctx context.Context) (rag.GraphData, error) {
	return e.data, nil
}

func (e *fakeEngine) RelationPairs(ctx context.Context) ([]map[string]interface{}, error) {
	return e.pairs, nil
}

func (e *fakeEngine) WorkingDir() string { return e.workDir }

type engineRecorder struct {
	engine *fakeEngine
	calls  int
	cfg    rag.Config
	err    error
}

func (r *engineRecorder) factory(cfg rag.Config, models rag.ModelFuncs) (rag.Engine, error) {
	r.calls++
	r.cfg = cfg
	if r.err != nil {
		return nil, r.err
	}
	return r.engine, nil
}

func testModelDefaults() config.ModelDefaults {
	return config.ModelDefaults{
		LLM:          config.ModelCredentials{Provider: "openai", ModelName: "gpt-4o-mini", APIKey: "sk-test"},
		EmbeddingDim: 1536,
		Language:     "English",
	}
}

func newTestProcessor(uow *stubUnitOfWork, factory rag.Factory, models config.ModelDefaults) IProcessorService {
	cfg := &config.Config{Models: models}
	return NewProcessorService(
		&stubRepoFactory{uow: uow},
		factory,
		graph.NewStubStore(nil, logger.NewNopLogger()),
		cfg,
		logger.NewNopLogger(),
	)
}

func writeTaskFile(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "report.pdf")
	require.NoError(t, os.WriteFile(path, []byte("content"), 0o644))
	return path
}

func seedKnowledgeBase(uow *stubUnitOfWork, t *testing.T) *entity.KnowledgeBase {
	t.Helper()
	kb := &entity.KnowledgeBase{
		Id:                       5,
		Name:                     "research",
		ParserType:               entity.ParserMineru,
		ParseMethod:              "auto",
		EnableImageProcessing:    true,
		EnableTableProcessing:    true,
		EnableEquationProcessing: true,
		WorkingDir:               t.TempDir(),
		IsActive:                 true,
	}
	uow.kbs.kbs[kb.Id] = kb
	return kb
}

func sampleGraphData() rag.GraphData {
	return rag.GraphData{
		Nodes: map[string]interface{}{
			"Ada Lovelace": map[string]interface{}{
				"entity_type": "person",
				"description": "mathematician",
			},
			"Analytical Engine": map[string]interface{}{
				"entity_type": "machine",
			},
			"London": map[string]interface{}{
				"entity_type": "place",
			},
		},
		Edges: []interface{}{
			map[string]interface{}{
				"src_id":      "Ada Lovelace",
				"tgt_id":      "Analytical Engine",
				"description": "wrote programs for",
			},
			map[string]interface{}{
				"src_id":      "Ada Lovelace",
				"tgt_id":      "London",
				"description": "lived in",
			},
		},
	}
}

func TestProcessorProcessSuccess(t *testing.T) {
	uow := newStubUnitOfWork()
	kb := seedKnowledgeBase(uow, t)

	rec := &engineRecorder{engine: &fakeEngine{
		stats:  rag.ParseStats{TextCount: 4, ImageCount: 1, TableCount: 2},
		status: rag.DocStatusProcessed,
		data:   sampleGraphData(),
	}}
	svc := newTestProcessor(uow, rec.factory, testModelDefaults())

	var seen []int
	onProgress := func(ctx context.Context, progress int, message string) {
		seen = append(seen, progress)
	}

	result := svc.Process(context.Background(), &dto.ProcessTask{
		DocumentId:      9,
		KnowledgeBaseId: kb.Id,
		FilePath:        writeTaskFile(t),
	}, onProgress)

	require.True(t, result.Success, result.Message)
	assert.Equal(t, []int{15, 25, 70, 85, 100}, seen)
	assert.Equal(t, 3, result.EntityCount)
	assert.Equal(t, 2, result.RelationCount)
	assert.Equal(t, 4, result.TextCount)
	assert.Equal(t, 1, result.ImageCount)
	assert.Equal(t, 2, result.TableCount)

	require.Equal(t, 1, rec.calls)
	assert.Equal(t, kb.WorkingDir, rec.cfg.WorkingDir)
	assert.Equal(t, "mineru", rec.cfg.Parser)
	assert.Equal(t, "English", rec.cfg.Language)
	assert.True(t, rec.cfg.EnableEquation)
}

func TestProcessorProcessEngineReportedFailure(t *testing.T) {
	uow := newStubUnitOfWork()
	kb := seedKnowledgeBase(uow, t)

	// The engine returns no error from ProcessDocument but records a
	// failed status for the path. That must still fail the run.
	rec := &engineRecorder{engine: &fakeEngine{
		stats:  rag.ParseStats{TextCount: 1},
		status: rag.DocStatusFailed,
		data:   sampleGraphData(),
	}}
	svc := newTestProcessor(uow, rec.factory, testModelDefaults())

	var seen []int
	onProgress := func(ctx context.Context, progress int, message string) {
		seen = append(seen, progress)
	}

	path := writeTaskFile(t)
	result := svc.Process(context.Background(), &dto.ProcessTask{
		DocumentId:      9,
		KnowledgeBaseId: kb.Id,
		FilePath:        path,
	}, onProgress)

	require.False(t, result.Success)
	assert.Equal(t, []int{15, 25}, seen)
	assert.Contains(t, result.Message, filepath.Base(path))
	assert.Contains(t, result.Message, "failed status")
}

func TestProcessorProcessMissingFile(t *testing.T) {
	uow := newStubUnitOfWork()
	kb := seedKnowledgeBase(uow, t)

	rec := &engineRecorder{engine: &fakeEngine{status: rag.DocStatusProcessed}}
	svc := newTestProcessor(uow, rec.factory, testModelDefaults())

	var seen []int
	result := svc.Process(context.Background(), &dto.ProcessTask{
		DocumentId:      9,
		KnowledgeBaseId: kb.Id,
		FilePath:        filepath.Join(t.TempDir(), "gone.pdf"),
	}, func(ctx context.Context, progress int, message string) {
		seen = append(seen, progress)
	})

	require.False(t, result.Success)
	assert.Equal(t, 0, rec.calls)
	assert.Empty(t, seen)
	assert.Contains(t, result.Message, "not readable")
}

func TestProcessorProcessParseError(t *testing.T) {
	uow := newStubUnitOfWork()
	kb := seedKnowledgeBase(uow, t)

	rec := &engineRecorder{engine: &fakeEngine{
		processErr: errors.New("parser crashed"),
	}}
	svc := newTestProcessor(uow, rec.factory, testModelDefaults())

	var seen []int
	result := svc.Process(context.Background(), &dto.ProcessTask{
		DocumentId:      9,
		KnowledgeBaseId: kb.Id,
		FilePath:        writeTaskFile(t),
	}, func(ctx context.Context, progress int, message string) {
		seen = append(seen, progress)
	})

	require.False(t, result.Success)
	assert.Equal(t, []int{15, 25}, seen)
	assert.Contains(t, result.Message, "parser crashed")
}

func TestProcessorProcessUnknownKnowledgeBase(t *testing.T) {
	uow := newStubUnitOfWork()

	rec := &engineRecorder{engine: &fakeEngine{status: rag.DocStatusProcessed}}
	svc := newTestProcessor(uow, rec.factory, testModelDefaults())

	result := svc.Process(context.Background(), &dto.ProcessTask{
		DocumentId:      9,
		KnowledgeBaseId: 404,
		FilePath:        writeTaskFile(t),
	}, nil)

	require.False(t, result.Success)
	assert.Equal(t, 0, rec.calls)
	assert.Contains(t, result.Message, "not found")
}

func TestProcessorEmbeddingCredentialFallback(t *testing.T) {
	uow := newStubUnitOfWork()
	kb := seedKnowledgeBase(uow, t)

	rec := &engineRecorder{engine: &fakeEngine{
		status: rag.DocStatusProcessed,
		data:   sampleGraphData(),
	}}

	// The embedding role names a model but carries no provider or key.
	// Resolution must borrow both from the resolved LLM credentials;
	// without that the provider factory rejects the empty provider.
	models := testModelDefaults()
	models.Embedding = config.ModelCredentials{ModelName: "text-embedding-3-small"}
	svc := newTestProcessor(uow, rec.factory, models)

	result := svc.Process(context.Background(), &dto.ProcessTask{
		DocumentId:      9,
		KnowledgeBaseId: kb.Id,
		FilePath:        writeTaskFile(t),
	}, nil)

	require.True(t, result.Success, result.Message)
}

func TestProcessorModelOverrideWins(t *testing.T) {
	uow := newStubUnitOfWork()
	kb := seedKnowledgeBase(uow, t)
	uow.models.configs[7] = &entity.ModelConfig{
		Id:        7,
		ModelType: entity.ModelTypeLLM,
		Provider:  "openai",
		ModelName: "gpt-4o",
		APIKey:    "sk-override",
		IsActive:  true,
	}

	rec := &engineRecorder{engine: &fakeEngine{
		status: rag.DocStatusProcessed,
		data:   sampleGraphData(),
	}}
	svc := newTestProcessor(uow, rec.factory, testModelDefaults())

	overrideID := int64(7)
	result := svc.Process(context.Background(), &dto.ProcessTask{
		DocumentId:      9,
		KnowledgeBaseId: kb.Id,
		FilePath:        writeTaskFile(t),
		Overrides:       dto.ModelOverrides{LlmModelId: &overrideID},
	}, nil)

	require.True(t, result.Success, result.Message)
	assert.Contains(t, uow.models.requested, int64(7))
}

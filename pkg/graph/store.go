package graph

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"rag-knowledge-be/internal/pkg/logger"
	"rag-knowledge-be/pkg/rag"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

const (
	defaultQueryLimit = 100
	maxQueryLimit     = 1000
)

// Store persists the kb-scoped property graph in Neo4j. When the
// database is unreachable at construction time the store runs in stub
// mode: writes become logged no-ops and reads return a small fixed
// dataset, so callers keep working under store unavailability.
type Store struct {
	driver  neo4j.DriverWithContext // nil in stub mode
	cleanup *rag.CleanupService
	log     logger.ILogger
}

func NewStore(ctx context.Context, url, user, password string, cleanup *rag.CleanupService, log logger.ILogger) *Store {
	driver, err := neo4j.NewDriverWithContext(url, neo4j.BasicAuth(user, password, ""))
	if err == nil {
		err = driver.VerifyConnectivity(ctx)
	}
	if err != nil {
		log.Warn("graph", "Neo4j unavailable, running in stub mode", map[string]interface{}{
			"url":   url,
			"error": err.Error(),
		})
		return &Store{driver: nil, cleanup: cleanup, log: log}
	}

	log.Info("graph", "Connected to Neo4j", map[string]interface{}{"url": url})
	return &Store{driver: driver, cleanup: cleanup, log: log}
}

// NewStubStore builds a store with no backing database. Used in tests
// and offline development.
func NewStubStore(cleanup *rag.CleanupService, log logger.ILogger) *Store {
	return &Store{driver: nil, cleanup: cleanup, log: log}
}

func (s *Store) IsStub() bool {
	return s.driver == nil
}

func (s *Store) Close(ctx context.Context) error {
	if s.driver == nil {
		return nil
	}
	return s.driver.Close(ctx)
}

// Store upserts entities by (kb_id, name) and relations by
// (kb_id, source, target). Relation types become dynamic edge labels.
// A warning no-op when the backing store is unavailable.
func (s *Store) Store(ctx context.Context, kbID int64, entities []Entity, relations []Relation) error {
	if s.driver == nil {
		s.log.Warn("graph", "Neo4j not available, skipping graph write", map[string]interface{}{
			"kb_id":     kbID,
			"entities":  len(entities),
			"relations": len(relations),
		})
		return nil
	}

	session := s.driver.NewSession(ctx, neo4j.SessionConfig{})
	defer session.Close(ctx)

	for _, entity := range entities {
		_, err := session.Run(ctx,
			`MERGE (e:Entity {name: $name, kb_id: $kb_id})
			 SET e.type = $type, e.description = $description, e.file_path = $file_path`,
			map[string]interface{}{
				"name":        entity.Name,
				"kb_id":       kbID,
				"type":        entity.Type,
				"description": entity.Description,
				"file_path":   entity.FilePath,
			})
		if err != nil {
			return fmt.Errorf("store entity %q: %w", entity.Name, err)
		}
	}

	for _, relation := range relations {
		relType := sanitizeRelType(relation.Type)
		query := fmt.Sprintf(
			`MATCH (source:Entity {name: $source, kb_id: $kb_id})
			 MATCH (target:Entity {name: $target, kb_id: $kb_id})
			 MERGE (source)-[r:%s]->(target)
			 SET r.weight = $weight, r.description = $description, r.keywords = $keywords, r.file_path = $file_path`,
			relType)
		_, err := session.Run(ctx, query, map[string]interface{}{
			"source":      relation.Source,
			"target":      relation.Target,
			"kb_id":       kbID,
			"weight":      relation.Weight,
			"description": relation.Description,
			"keywords":    relation.Keywords,
			"file_path":   relation.FilePath,
		})
		if err != nil {
			return fmt.Errorf("store relation %s->%s: %w", relation.Source, relation.Target, err)
		}
	}

	s.log.Info("graph", "Stored graph data", map[string]interface{}{
		"kb_id":     kbID,
		"entities":  len(entities),
		"relations": len(relations),
	})
	return nil
}

// sanitizeRelType keeps the relation type usable as a Cypher label.
// Inferred types are already uppercase identifiers; anything else
// collapses to the default.
func sanitizeRelType(relType string) string {
	if relType == "" {
		return RelationTypeDefault
	}
	for _, r := range relType {
		if !(r == '_' || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')) {
			return RelationTypeDefault
		}
	}
	return relType
}

type Node struct {
	Id          string
	Name        string
	Type        string
	Description string
}

type Edge struct {
	Source      string
	Target      string
	Type        string
	Weight      float64
	Description string
	Keywords    string
}

type QueryResult struct {
	Nodes  []Node
	Edges  []Edge
	IsStub bool
}

// Query returns the kb's entities and relations truncated at limit.
// Display identifiers have whitespace replaced with underscores.
func (s *Store) Query(ctx context.Context, kbID int64, limit int) (QueryResult, error) {
	if limit <= 0 {
		limit = defaultQueryLimit
	}
	if limit > maxQueryLimit {
		limit = maxQueryLimit
	}

	if s.driver == nil {
		s.log.Warn("graph", "Neo4j not available, returning stub data", map[string]interface{}{"kb_id": kbID})
		return stubQueryResult(), nil
	}

	session := s.driver.NewSession(ctx, neo4j.SessionConfig{})
	defer session.Close(ctx)

	result := QueryResult{}

	nodeRes, err := session.Run(ctx,
		`MATCH (e:Entity {kb_id: $kb_id})
		 RETURN e.name AS name, e.type AS type, e.description AS description
		 LIMIT $limit`,
		map[string]interface{}{"kb_id": kbID, "limit": limit})
	if err != nil {
		return result, fmt.Errorf("query entities: %w", err)
	}
	for nodeRes.Next(ctx) {
		rec := nodeRes.Record()
		name := recordString(rec, "name")
		result.Nodes = append(result.Nodes, Node{
			Id:          DisplayID(name),
			Name:        name,
			Type:        recordString(rec, "type"),
			Description: recordString(rec, "description"),
		})
	}
	if err := nodeRes.Err(); err != nil {
		return result, fmt.Errorf("query entities: %w", err)
	}

	edgeRes, err := session.Run(ctx,
		`MATCH (source:Entity {kb_id: $kb_id})-[r]->(target:Entity {kb_id: $kb_id})
		 RETURN source.name AS source, target.name AS target, type(r) AS relation_type,
		        r.weight AS weight, r.description AS description, r.keywords AS keywords
		 LIMIT $limit`,
		map[string]interface{}{"kb_id": kbID, "limit": limit})
	if err != nil {
		return result, fmt.Errorf("query relations: %w", err)
	}
	for edgeRes.Next(ctx) {
		rec := edgeRes.Record()
		result.Edges = append(result.Edges, Edge{
			Source:      DisplayID(recordString(rec, "source")),
			Target:      DisplayID(recordString(rec, "target")),
			Type:        recordString(rec, "relation_type"),
			Weight:      recordFloat(rec, "weight"),
			Description: recordString(rec, "description"),
			Keywords:    recordString(rec, "keywords"),
		})
	}
	if err := edgeRes.Err(); err != nil {
		return result, fmt.Errorf("query relations: %w", err)
	}

	return result, nil
}

// DisplayID makes an entity name stable for display by replacing
// whitespace with underscores.
func DisplayID(name string) string {
	return strings.Join(strings.Fields(name), "_")
}

func stubQueryResult() QueryResult {
	return QueryResult{
		Nodes: []Node{
			{Id: "entity_1", Name: "Concept A", Type: "concept", Description: "First concept"},
			{Id: "entity_2", Name: "Concept B", Type: "concept", Description: "Second concept"},
			{Id: "entity_3", Name: "Concept C", Type: "concept", Description: "Third concept"},
		},
		Edges: []Edge{
			{Source: "entity_1", Target: "entity_2", Type: "RELATED_TO", Weight: 0.8},
			{Source: "entity_2", Target: "entity_3", Type: "DEPENDS_ON", Weight: 0.9},
		},
		IsStub: true,
	}
}

type Stats struct {
	EntityCount   int64
	RelationCount int64
}

func (s *Store) Stats(ctx context.Context, kbID int64) (Stats, error) {
	if s.driver == nil {
		s.log.Warn("graph", "Neo4j not available, returning stub stats", map[string]interface{}{"kb_id": kbID})
		return Stats{}, nil
	}

	session := s.driver.NewSession(ctx, neo4j.SessionConfig{})
	defer session.Close(ctx)

	entityCount, err := s.countQuery(ctx, session,
		"MATCH (e:Entity {kb_id: $kb_id}) RETURN count(e) AS count", kbID)
	if err != nil {
		return Stats{}, err
	}
	relationCount, err := s.countQuery(ctx, session,
		"MATCH (:Entity {kb_id: $kb_id})-[r]->(:Entity {kb_id: $kb_id}) RETURN count(r) AS count", kbID)
	if err != nil {
		return Stats{}, err
	}

	return Stats{EntityCount: entityCount, RelationCount: relationCount}, nil
}

func (s *Store) countQuery(ctx context.Context, session neo4j.SessionWithContext, query string, kbID int64) (int64, error) {
	res, err := session.Run(ctx, query, map[string]interface{}{"kb_id": kbID})
	if err != nil {
		return 0, err
	}
	rec, err := res.Single(ctx)
	if err != nil {
		return 0, err
	}
	if v, ok := rec.Get("count"); ok {
		if n, ok := v.(int64); ok {
			return n, nil
		}
	}
	return 0, nil
}

type DeleteResult struct {
	EntitiesRemoved  int
	RelationsRemoved int
	OrphansRemoved   int
}

// DeleteDocumentEntities removes graph records tagged with the document.
// The engine does not populate file_path consistently, so matching is
// three-way: exact path, bare basename, or suffix basename. A final
// sweep then deletes every relation-less entity in the kb. The sweep is
// kb-wide on purpose and may collect orphans left by other documents.
func (s *Store) DeleteDocumentEntities(ctx context.Context, kbID int64, documentPath string) (DeleteResult, error) {
	result := DeleteResult{}

	if s.driver == nil {
		s.log.Warn("graph", "Neo4j not available, skipping document entity deletion", map[string]interface{}{
			"kb_id":    kbID,
			"document": documentPath,
		})
		return result, nil
	}

	session := s.driver.NewSession(ctx, neo4j.SessionConfig{})
	defer session.Close(ctx)

	filename := filepath.Base(documentPath)

	relationsDeleted, err := s.deleteQuery(ctx, session,
		`MATCH (s:Entity {kb_id: $kb_id})-[r]->(t:Entity {kb_id: $kb_id})
		 WHERE r.file_path = $document_path
		    OR r.file_path = $filename
		    OR r.file_path ENDS WITH $filename
		 DELETE r
		 RETURN count(r) AS deleted_count`,
		map[string]interface{}{"kb_id": kbID, "document_path": documentPath, "filename": filename})
	if err != nil {
		return result, fmt.Errorf("delete relations: %w", err)
	}
	result.RelationsRemoved = int(relationsDeleted)

	entitiesDeleted, err := s.deleteQuery(ctx, session,
		`MATCH (e:Entity {kb_id: $kb_id})
		 WHERE e.file_path = $document_path
		    OR e.file_path = $filename
		    OR e.file_path ENDS WITH $filename
		 DETACH DELETE e
		 RETURN count(e) AS deleted_count`,
		map[string]interface{}{"kb_id": kbID, "document_path": documentPath, "filename": filename})
	if err != nil {
		return result, fmt.Errorf("delete entities: %w", err)
	}
	result.EntitiesRemoved = int(entitiesDeleted)

	orphansDeleted, err := s.deleteQuery(ctx, session,
		`MATCH (e:Entity {kb_id: $kb_id})
		 WHERE NOT (e)--()
		 DELETE e
		 RETURN count(e) AS deleted_count`,
		map[string]interface{}{"kb_id": kbID})
	if err != nil {
		return result, fmt.Errorf("delete orphans: %w", err)
	}
	result.OrphansRemoved = int(orphansDeleted)

	s.log.Info("graph", "Deleted document graph data", map[string]interface{}{
		"kb_id":     kbID,
		"document":  documentPath,
		"entities":  result.EntitiesRemoved,
		"relations": result.RelationsRemoved,
		"orphans":   result.OrphansRemoved,
	})
	return result, nil
}

func (s *Store) deleteQuery(ctx context.Context, session neo4j.SessionWithContext, query string, params map[string]interface{}) (int64, error) {
	res, err := session.Run(ctx, query, params)
	if err != nil {
		return 0, err
	}
	rec, err := res.Single(ctx)
	if err != nil {
		return 0, err
	}
	if v, ok := rec.Get("deleted_count"); ok {
		if n, ok := v.(int64); ok {
			return n, nil
		}
	}
	return 0, nil
}

// DeleteKBGraph removes all graph data for the kb, then separately
// removes its on-disk cache directory. The two deletions are not
// atomic; the consistency monitor repairs partial outcomes.
func (s *Store) DeleteKBGraph(ctx context.Context, kbID int64) error {
	if s.driver != nil {
		session := s.driver.NewSession(ctx, neo4j.SessionConfig{})
		deleted, err := s.deleteQuery(ctx, session,
			"MATCH (e:Entity {kb_id: $kb_id}) DETACH DELETE e RETURN count(e) AS deleted_count",
			map[string]interface{}{"kb_id": kbID})
		session.Close(ctx)
		if err != nil {
			return fmt.Errorf("delete kb graph: %w", err)
		}
		s.log.Info("graph", "Deleted kb graph data", map[string]interface{}{
			"kb_id":   kbID,
			"deleted": deleted,
		})
	} else {
		s.log.Warn("graph", "Neo4j not available, skipping kb graph deletion", map[string]interface{}{"kb_id": kbID})
	}

	if s.cleanup != nil {
		if err := s.cleanup.DeleteKBStorage(kbID); err != nil {
			s.log.Error("graph", "Failed to delete kb cache directory", map[string]interface{}{
				"kb_id": kbID,
				"error": err.Error(),
			})
		}
	}
	return nil
}

func recordString(rec *neo4j.Record, key string) string {
	if v, ok := rec.Get(key); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

func recordFloat(rec *neo4j.Record, key string) float64 {
	if v, ok := rec.Get(key); ok {
		switch n := v.(type) {
		case float64:
			return n
		case int64:
			return float64(n)
		}
	}
	return 0
}

package memory

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"
)

// Embedder is the slice of the model client the vector store needs.
type Embedder interface {
	EmbedText(ctx context.Context, input string) ([]float32, error)
}

// VectorStore keeps exchange records in a qdrant collection, scored by
// cosine similarity over embeddings from the local model.
type VectorStore struct {
	client     *qdrant.Client
	embedder   Embedder
	collection string
}

var _ Store = &VectorStore{}

func NewVectorStore(host string, port int, collection string, embedder Embedder) (*VectorStore, error) {
	client, err := qdrant.NewClient(&qdrant.Config{
		Host: host,
		Port: port,
	})
	if err != nil {
		return nil, err
	}
	return &VectorStore{
		client:     client,
		embedder:   embedder,
		collection: collection,
	}, nil
}

func (s *VectorStore) Backend() string { return "vector" }

// Init creates the collection when missing. The vector size is probed from
// the embedding service so nomic-style and larger models both work.
func (s *VectorStore) Init(ctx context.Context) error {
	exists, err := s.client.CollectionExists(ctx, s.collection)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	probe, err := s.embedder.EmbedText(ctx, "test")
	if err != nil {
		return fmt.Errorf("probe embedding size: %w", err)
	}

	if err = s.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: s.collection,
		VectorsConfig: &qdrant.VectorsConfig{
			Config: &qdrant.VectorsConfig_Params{
				Params: &qdrant.VectorParams{
					Size:     uint64(len(probe)),
					Distance: qdrant.Distance_Cosine,
				},
			},
		},
	}); err != nil {
		return fmt.Errorf("create collection: %w", err)
	}
	return nil
}

func (s *VectorStore) Close() error {
	return s.client.Close()
}

func (s *VectorStore) Save(ctx context.Context, rec Record) error {
	vec, err := s.embedder.EmbedText(ctx, rec.Text)
	if err != nil {
		return err
	}

	id := rec.ID
	if id == "" {
		id = uuid.New().String()
	}

	payload := map[string]any{
		"text":        rec.Text,
		"description": rec.Description,
		"timestamp":   rec.Timestamp.Format(time.RFC3339),
	}

	_, err = s.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: s.collection,
		Points: []*qdrant.PointStruct{{
			Id:      qdrant.NewIDUUID(id),
			Vectors: qdrant.NewVectors(vec...),
			Payload: qdrant.NewValueMap(payload),
		}},
	})
	return err
}

func (s *VectorStore) Search(ctx context.Context, query string, limit int) ([]Record, error) {
	vec, err := s.embedder.EmbedText(ctx, query)
	if err != nil {
		return nil, err
	}

	k := uint64(limit)
	resp, err := s.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: s.collection,
		Limit:          &k,
		Query:          qdrant.NewQuery(vec...),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, err
	}

	out := make([]Record, 0, len(resp))
	for _, r := range resp {
		rec := Record{}
		if r.Id != nil {
			switch x := r.Id.PointIdOptions.(type) {
			case *qdrant.PointId_Uuid:
				rec.ID = x.Uuid
			case *qdrant.PointId_Num:
				rec.ID = fmt.Sprintf("%d", x.Num)
			}
		}
		for key, v := range r.Payload {
			sv, ok := v.Kind.(*qdrant.Value_StringValue)
			if !ok {
				continue
			}
			switch key {
			case "text":
				rec.Text = sv.StringValue
			case "description":
				rec.Description = sv.StringValue
			case "timestamp":
				rec.Timestamp, _ = time.Parse(time.RFC3339, sv.StringValue)
			}
		}
		out = append(out, rec)
	}
	return out, nil
}

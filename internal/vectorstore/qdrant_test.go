package vectorstore

import (
	"testing"

	"github.com/qdrant/go-client/qdrant"
)

func TestGRPCEndpoint(t *testing.T) {
	tests := []struct {
		name     string
		urlStr   string
		wantErr  bool
		wantHost string
		wantPort int
	}{
		{
			name:     "valid URL",
			urlStr:   "http://localhost:6333",
			wantHost: "localhost",
			wantPort: 6334, // gRPC port is HTTP port + 1
		},
		{
			name:     "URL with custom port",
			urlStr:   "http://qdrant.internal:9000",
			wantHost: "qdrant.internal",
			wantPort: 9001,
		},
		{
			name:    "invalid URL",
			urlStr:  "://invalid",
			wantErr: true,
		},
		{
			name:     "URL without port",
			urlStr:   "http://localhost",
			wantHost: "localhost",
			wantPort: 6334, // Default
		},
		{
			name:     "URL without hostname",
			urlStr:   "http://:6333",
			wantHost: "localhost", // Defaults to localhost
			wantPort: 6334,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			host, port, err := grpcEndpoint(tt.urlStr)
			if tt.wantErr {
				if err == nil {
					t.Error("grpcEndpoint() expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("grpcEndpoint() error = %v", err)
			}
			if host != tt.wantHost {
				t.Errorf("Host = %v, want %v", host, tt.wantHost)
			}
			if port != tt.wantPort {
				t.Errorf("Port = %v, want %v", port, tt.wantPort)
			}
		})
	}
}

// TestNewQdrantStore_InvalidURL only covers the error path so no client is dialed.
func TestNewQdrantStore_InvalidURL(t *testing.T) {
	_, err := NewQdrantStore("://invalid")
	if err == nil {
		t.Error("NewQdrantStore() with invalid URL should return error")
	}
}

func TestToPointStructs(t *testing.T) {
	points := []Point{
		{
			ID:  "7f6c1f5e-2f55-4f5a-9f61-5d5f0a3d9a11",
			Vec: []float32{0.1, 0.2},
			Meta: map[string]any{
				"source_id":   "doc.md",
				"chunk_index": 3,
				"kinds":       []any{"header", "paragraph"},
			},
		},
		{ID: "c0d2c7a1-0a4b-4bb8-9d0e-5b1d3c2f6e77", Vec: []float32{1, 0}},
	}

	got, err := toPointStructs(points)
	if err != nil {
		t.Fatalf("toPointStructs() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("toPointStructs() returned %d points, want 2", len(got))
	}
	if got[0].Id.GetUuid() != points[0].ID {
		t.Errorf("Id = %v, want %v", got[0].Id.GetUuid(), points[0].ID)
	}
	if got[0].Payload["source_id"].GetStringValue() != "doc.md" {
		t.Errorf("payload source_id = %v", got[0].Payload["source_id"])
	}
	if got[0].Payload["chunk_index"].GetIntegerValue() != 3 {
		t.Errorf("payload chunk_index = %v", got[0].Payload["chunk_index"])
	}
	if got[1].Payload != nil {
		t.Errorf("payload = %v, want nil when no metadata", got[1].Payload)
	}
}

func TestToPointStructs_InvalidPayload(t *testing.T) {
	_, err := toPointStructs([]Point{{ID: "x", Vec: []float32{1}, Meta: map[string]any{"bad": struct{}{}}}})
	if err == nil {
		t.Error("toPointStructs() expected error for unsupported payload type")
	}
}

func TestVectorSizeOf(t *testing.T) {
	withSize := func(size uint64) *qdrant.CollectionInfo {
		return &qdrant.CollectionInfo{
			Config: &qdrant.CollectionConfig{
				Params: &qdrant.CollectionParams{
					VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{Size: size, Distance: qdrant.Distance_Euclid}),
				},
			},
		}
	}

	tests := []struct {
		name    string
		info    *qdrant.CollectionInfo
		want    int
		wantErr bool
	}{
		{name: "sized", info: withSize(256), want: 256},
		{name: "zero size", info: withSize(0), wantErr: true},
		{name: "nil info", info: nil, wantErr: true},
		{name: "no config", info: &qdrant.CollectionInfo{}, wantErr: true},
		{name: "no vectors config", info: &qdrant.CollectionInfo{Config: &qdrant.CollectionConfig{Params: &qdrant.CollectionParams{}}}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := vectorSizeOf(tt.info)
			if (err != nil) != tt.wantErr {
				t.Fatalf("vectorSizeOf() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("vectorSizeOf() = %d, want %d", got, tt.want)
			}
		})
	}
}

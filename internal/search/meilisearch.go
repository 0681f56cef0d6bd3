package search

import (
	"fmt"
	"strings"

	"github.com/meilisearch/meilisearch-go"

	"rental-watch/internal/address"
)

// BuildingDocument is the indexed view of one address's record counts.
type BuildingDocument struct {
	ID             string `json:"id"`
	Address        string `json:"address"`
	Violations     int    `json:"violations"`
	OpenViolations int    `json:"open_violations"`
	Complaints     int    `json:"complaints"`
	OpenComplaints int    `json:"open_complaints"`
	CheckedAt      int64  `json:"checked_at"`
}

// NewBuildingDocument keys the document by the address slug.
func NewBuildingDocument(canonical string) BuildingDocument {
	return BuildingDocument{ID: address.Slug(canonical), Address: canonical}
}

type SearchClient struct {
	client *meilisearch.Client
	index  string
}

func NewSearchClient(host, apiKey, index string) *SearchClient {
	client := meilisearch.NewClient(meilisearch.ClientConfig{
		Host:   host,
		APIKey: apiKey,
	})
	if index == "" {
		index = "buildings"
	}
	return &SearchClient{
		client: client,
		index:  index,
	}
}

// InitIndex creates the index and its attribute settings
func (s *SearchClient) InitIndex() error {
	_, err := s.client.CreateIndex(&meilisearch.IndexConfig{
		Uid:        s.index,
		PrimaryKey: "id",
	})
	// Ignore error if index already exists
	if err != nil && !strings.Contains(err.Error(), "index_already_exists") && err.Error() != "index already exists" {
		return err
	}

	idx := s.client.Index(s.index)
	if _, err = idx.UpdateSearchableAttributes(&[]string{"address"}); err != nil {
		return err
	}
	if _, err = idx.UpdateFilterableAttributes(&[]string{
		"violations",
		"open_violations",
		"complaints",
		"open_complaints",
	}); err != nil {
		return err
	}
	if _, err = idx.UpdateSortableAttributes(&[]string{
		"violations",
		"complaints",
		"checked_at",
	}); err != nil {
		return err
	}
	return nil
}

// IndexBuilding adds or replaces one document
func (s *SearchClient) IndexBuilding(doc BuildingDocument) error {
	_, err := s.client.Index(s.index).AddDocuments([]BuildingDocument{doc})
	if err != nil {
		return fmt.Errorf("index %s: %w", doc.ID, err)
	}
	return nil
}

// Search runs a filtered address search
func (s *SearchClient) Search(params FilterParams) ([]BuildingDocument, error) {
	searchRes, err := s.client.Index(s.index).Search(params.Query, params.request())
	if err != nil {
		return nil, err
	}

	docs := make([]BuildingDocument, 0, len(searchRes.Hits))
	for _, hit := range searchRes.Hits {
		hitMap, ok := hit.(map[string]interface{})
		if !ok {
			continue
		}
		docs = append(docs, parseBuildingFromHit(hitMap))
	}
	return docs, nil
}

func parseBuildingFromHit(hitMap map[string]interface{}) BuildingDocument {
	return BuildingDocument{
		ID:             getString(hitMap, "id"),
		Address:        getString(hitMap, "address"),
		Violations:     getInt(hitMap, "violations"),
		OpenViolations: getInt(hitMap, "open_violations"),
		Complaints:     getInt(hitMap, "complaints"),
		OpenComplaints: getInt(hitMap, "open_complaints"),
		CheckedAt:      int64(getInt(hitMap, "checked_at")),
	}
}

// getString safely extracts a string from map
func getString(m map[string]interface{}, key string) string {
	if val, ok := m[key].(string); ok {
		return val
	}
	return ""
}

// getInt reads a JSON number
func getInt(m map[string]interface{}, key string) int {
	if val, ok := m[key].(float64); ok {
		return int(val)
	}
	return 0
}

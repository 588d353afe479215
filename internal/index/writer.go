package index

import (
	"context"
	"encoding/json"
	"fmt"

	elastic "github.com/olivere/elastic/v7"

	"github.com/dbcls/humandbs-sub002/internal/domain"
)

// Ref identifies one stored document plus the optimistic-concurrency
// tokens needed to update it safely.
type Ref struct {
	ID            string
	SeqNo         int64
	PrimaryTerm   int64
}

// Conflict names an optimistic concurrency conflict: the
// sequence-number/primary-term pair no longer matches the stored document.
// Update and SoftDelete do not return it; they report a conflict as
// (false, nil) (spec.md §4.6: "returns null on concurrency conflict").
var Conflict = fmt.Errorf("index: optimistic concurrency conflict")

// Writer is the IndexWriter of spec.md §4.6.
type Writer struct {
	client *Client
}

func NewWriter(client *Client) *Writer {
	return &Writer{client: client}
}

// Create writes a brand-new document, failing if id already exists.
func (w *Writer) Create(ctx context.Context, index, id string, doc interface{}) error {
	_, err := w.client.es.Index().Index(index).Id(id).OpType("create").BodyJson(doc).Do(ctx)
	if err != nil {
		if isConflict(err) {
			return domain.NewPipelineError(domain.ErrIndexConflict, "create conflict for "+index+"/"+id, err)
		}
		return domain.NewPipelineError(domain.ErrIndexIO, "creating "+index+"/"+id, err)
	}
	return nil
}

// Update replaces doc at id, guarded by seqNo/primaryTerm. Returns
// (false, nil) on a concurrency conflict rather than an error, per
// spec.md's "update(...) returns null on concurrency conflict".
func (w *Writer) Update(ctx context.Context, index, id string, doc interface{}, seqNo, primaryTerm int64) (bool, error) {
	_, err := w.client.es.Index().Index(index).Id(id).
		IfSeqNo(seqNo).IfPrimaryTerm(primaryTerm).
		BodyJson(doc).Do(ctx)
	if err != nil {
		if isConflict(err) {
			return false, nil
		}
		return false, domain.NewPipelineError(domain.ErrIndexIO, "updating "+index+"/"+id, err)
	}
	return true, nil
}

// Get fetches the current document plus its concurrency tokens.
func (w *Writer) Get(ctx context.Context, index, id string, out interface{}) (*Ref, error) {
	res, err := w.client.get(ctx, index, id)
	if err != nil {
		return nil, err
	}
	if res == nil {
		return nil, nil
	}
	if err := json.Unmarshal(res.Source, out); err != nil {
		return nil, domain.NewPipelineError(domain.ErrIndexIO, "decoding "+index+"/"+id, err)
	}
	ref := &Ref{ID: id}
	if res.SeqNo != nil {
		ref.SeqNo = *res.SeqNo
	}
	if res.PrimaryTerm != nil {
		ref.PrimaryTerm = *res.PrimaryTerm
	}
	return ref, nil
}

// SoftDelete marks a document deleted by rewriting it with status =
// "deleted" rather than removing it from the index (spec.md §4.6: "delete
// (soft: status->deleted)").
func (w *Writer) SoftDelete(ctx context.Context, index, id string, seqNo, primaryTerm int64) (bool, error) {
	_, err := w.client.es.Update().Index(index).Id(id).
		IfSeqNo(seqNo).IfPrimaryTerm(primaryTerm).
		Doc(map[string]interface{}{"status": domain.StatusDeleted}).
		Do(ctx)
	if err != nil {
		if isConflict(err) {
			return false, nil
		}
		return false, domain.NewPipelineError(domain.ErrIndexIO, "soft-deleting "+index+"/"+id, err)
	}
	return true, nil
}

const maxHumIDRetries = 3

// AllocateHumID generates the next humId ("hum0001" if none exist, else
// "hum{max+1}" zero-padded to 4 digits) and attempts to Create a stub
// Research document under it, retrying up to maxHumIDRetries times on a
// create conflict (another writer raced for the same id).
func (w *Writer) AllocateHumID(ctx context.Context, researchIndex string, nextStub func(humID string) interface{}) (string, error) {
	var lastErr error
	for attempt := 0; attempt <= maxHumIDRetries; attempt++ {
		humID, err := w.nextHumID(ctx, researchIndex)
		if err != nil {
			return "", err
		}
		if err := w.Create(ctx, researchIndex, humID, nextStub(humID)); err != nil {
			if perr, ok := err.(*domain.PipelineError); ok && perr.Kind == domain.ErrIndexConflict {
				lastErr = err
				continue
			}
			return "", err
		}
		return humID, nil
	}
	return "", domain.NewPipelineError(domain.ErrIndexConflict, "exhausted humId allocation retries", lastErr)
}

// nextHumID finds the current maximum allocated humId with one search over
// the research index sorted by humId.keyword descending, size 1, and
// returns the id after it.
func (w *Writer) nextHumID(ctx context.Context, researchIndex string) (string, error) {
	res, err := w.client.es.Search().Index(researchIndex).
		Sort("humId.keyword", false).
		Size(1).
		Do(ctx)
	if err != nil {
		return "", domain.NewPipelineError(domain.ErrIndexIO, "scanning for max humId", err)
	}
	if res.Hits == nil || len(res.Hits.Hits) == 0 {
		return domain.FormatHumID(1), nil
	}
	var top struct {
		HumID string `json:"humId"`
	}
	if err := json.Unmarshal(res.Hits.Hits[0].Source, &top); err != nil {
		return "", domain.NewPipelineError(domain.ErrIndexIO, "decoding max humId hit", err)
	}
	_, n, ok := parseHumIDNumber(top.HumID)
	if !ok {
		return domain.FormatHumID(1), nil
	}
	return domain.FormatHumID(n + 1), nil
}

func parseHumIDNumber(humID string) (string, int, bool) {
	if !domain.IsHumID(humID) {
		return "", 0, false
	}
	var n int
	if _, err := fmt.Sscanf(humID, "hum%04d", &n); err != nil {
		return "", 0, false
	}
	return humID, n, true
}

// CreateResearch atomically writes a ResearchVersion v1 document first,
// then the owning Research document; if the Research write fails, it
// best-effort rolls back the version write (spec.md §4.6).
func (w *Writer) CreateResearch(ctx context.Context, humID string, version interface{}, versionID string, research interface{}) error {
	if err := w.Create(ctx, w.client.Version, versionID, version); err != nil {
		return err
	}
	if err := w.Create(ctx, w.client.Research, humID, research); err != nil {
		if _, delErr := w.client.es.Delete().Index(w.client.Version).Id(versionID).Do(ctx); delErr != nil {
			return domain.NewPipelineError(domain.ErrIndexIO,
				fmt.Sprintf("research create failed (%v) and version rollback also failed", err), delErr)
		}
		return err
	}
	return nil
}

func isConflict(err error) bool {
	if e, ok := err.(*elastic.Error); ok {
		return e.Status == 409
	}
	return false
}

package store

import (
	"context"
	"fmt"
	"sort"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/Lllllllleong/submissionwall/internal/models"
)

// FirestoreBackend keeps one document per record, keyed by SubmissionID
// when the record has one. It supports atomic per-record mutation, which
// removes the lost-update window of whole-document writes for likes and
// webhook inserts.
type FirestoreBackend struct {
	client     *firestore.Client
	collection string
}

func NewFirestoreBackend(client *firestore.Client, collection string) *FirestoreBackend {
	return &FirestoreBackend{client: client, collection: collection}
}

func (b *FirestoreBackend) coll() *firestore.CollectionRef {
	return b.client.Collection(b.collection)
}

// Load returns every record, newest first.
func (b *FirestoreBackend) Load(ctx context.Context) ([]models.Record, error) {
	it := b.coll().Documents(ctx)
	defer it.Stop()

	records := []models.Record{}
	for {
		snap, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to list records: %w", err)
		}
		var rec models.Record
		if err := snap.DataTo(&rec); err != nil {
			return nil, fmt.Errorf("failed to decode record %s: %w", snap.Ref.ID, err)
		}
		rec.DocID = snap.Ref.ID
		records = append(records, rec)
	}
	sortNewestFirst(records)
	return records, nil
}

// Save makes the collection hold exactly records.
func (b *FirestoreBackend) Save(ctx context.Context, records []models.Record) error {
	existing := map[string]bool{}
	refs := b.coll().DocumentRefs(ctx)
	for {
		ref, err := refs.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to list record ids: %w", err)
		}
		existing[ref.ID] = true
	}

	bw := b.client.BulkWriter(ctx)
	var jobs []*firestore.BulkWriterJob
	keep := map[string]bool{}
	for _, rec := range records {
		if rec.Init {
			continue
		}
		ref := b.docFor(rec)
		if keep[ref.ID] {
			continue
		}
		keep[ref.ID] = true
		job, err := bw.Set(ref, rec)
		if err != nil {
			bw.End()
			return fmt.Errorf("failed to queue record %s: %w", ref.ID, err)
		}
		jobs = append(jobs, job)
	}
	for id := range existing {
		if keep[id] {
			continue
		}
		job, err := bw.Delete(b.coll().Doc(id))
		if err != nil {
			bw.End()
			return fmt.Errorf("failed to queue delete of %s: %w", id, err)
		}
		jobs = append(jobs, job)
	}
	bw.End()

	for _, job := range jobs {
		if _, err := job.Results(); err != nil {
			return fmt.Errorf("failed to write records: %w", err)
		}
	}
	return nil
}

// InsertIfAbsent creates the record's document unless it already exists.
func (b *FirestoreBackend) InsertIfAbsent(ctx context.Context, rec models.Record) (bool, error) {
	if rec.SubmissionID == "" {
		if _, _, err := b.coll().Add(ctx, rec); err != nil {
			return false, fmt.Errorf("failed to add record: %w", err)
		}
		return true, nil
	}
	_, err := b.coll().Doc(rec.SubmissionID).Create(ctx, rec)
	if status.Code(err) == codes.AlreadyExists {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to create record %s: %w", rec.SubmissionID, err)
	}
	return true, nil
}

// IncrementLikes adds one like inside a transaction.
func (b *FirestoreBackend) IncrementLikes(ctx context.Context, submissionID string) (int, error) {
	ref := b.coll().Doc(submissionID)
	var likes int
	err := b.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(ref)
		if status.Code(err) == codes.NotFound {
			return fmt.Errorf("%w: %s", models.ErrNotFound, submissionID)
		}
		if err != nil {
			return err
		}
		var rec models.Record
		if err := snap.DataTo(&rec); err != nil {
			return fmt.Errorf("failed to decode record %s: %w", submissionID, err)
		}
		likes = rec.Likes + 1
		return tx.Update(ref, []firestore.Update{{Path: "likes", Value: firestore.Increment(1)}})
	})
	if err != nil {
		return 0, err
	}
	return likes, nil
}

func (b *FirestoreBackend) docFor(rec models.Record) *firestore.DocumentRef {
	switch {
	case rec.SubmissionID != "":
		return b.coll().Doc(rec.SubmissionID)
	case rec.DocID != "":
		return b.coll().Doc(rec.DocID)
	default:
		return b.coll().NewDoc()
	}
}

// sortNewestFirst orders by timestamp descending; records without a
// timestamp go last in document-id order.
func sortNewestFirst(records []models.Record) {
	sort.SliceStable(records, func(i, j int) bool {
		a, b := records[i], records[j]
		if (a.Timestamp == "") != (b.Timestamp == "") {
			return a.Timestamp != ""
		}
		if a.Timestamp != b.Timestamp {
			return a.Timestamp > b.Timestamp
		}
		return a.DocID < b.DocID
	})
}

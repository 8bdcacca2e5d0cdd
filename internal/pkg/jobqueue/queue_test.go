package jobqueue

import (
	"context"
	"testing"
)

func TestEnqueueAndGetJob(t *testing.T) {
	host, port, password := resolveTestRedis(t)
	configureTestCache(host, port, password)
	resetJobQueueRedis(t)
	t.Cleanup(func() { resetJobQueueRedis(t) })

	q := NewQueue(1)
	ctx := context.Background()

	payload := PhotoProcessJobPayload{
		PhotoID:   42,
		PhotoUUID: "550e8400-e29b-41d4-a716-446655440000",
	}
	job, err := q.EnqueueJob(JobTypePhotoProcess, payload.ToMap())
	if err != nil {
		t.Fatalf("EnqueueJob: %v", err)
	}
	if job.Status != JobStatusPending {
		t.Fatalf("new job status = %s, want %s", job.Status, JobStatusPending)
	}

	got, err := q.GetJob(ctx, job.ID)
	if err != nil {
		t.Fatalf("GetJob: %v", err)
	}
	if got.Type != JobTypePhotoProcess {
		t.Fatalf("job type = %s, want %s", got.Type, JobTypePhotoProcess)
	}

	parsed, err := PhotoProcessJobPayloadFromMap(got.Payload)
	if err != nil {
		t.Fatalf("parsing payload: %v", err)
	}
	if parsed.PhotoID != 42 || parsed.PhotoUUID != payload.PhotoUUID {
		t.Fatalf("payload roundtrip mismatch: %+v", parsed)
	}

	size, err := q.GetQueueSize(ctx)
	if err != nil {
		t.Fatalf("GetQueueSize: %v", err)
	}
	if size != 1 {
		t.Fatalf("queue size = %d, want 1", size)
	}
}

func TestDequeueMovesJobToProcessing(t *testing.T) {
	host, port, password := resolveTestRedis(t)
	configureTestCache(host, port, password)
	resetJobQueueRedis(t)
	t.Cleanup(func() { resetJobQueueRedis(t) })

	q := NewQueue(1)
	ctx := context.Background()

	enqueued, err := q.EnqueueJob(JobTypePhotoDelete, PhotoDeleteJobPayload{PhotoID: 7}.ToMap())
	if err != nil {
		t.Fatalf("EnqueueJob: %v", err)
	}

	job, err := q.dequeueJob(ctx)
	if err != nil {
		t.Fatalf("dequeueJob: %v", err)
	}
	if job.ID != enqueued.ID {
		t.Fatalf("dequeued job %s, want %s", job.ID, enqueued.ID)
	}

	pending, _ := q.GetQueueSize(ctx)
	processing, _ := q.GetProcessingSize(ctx)
	if pending != 0 || processing != 1 {
		t.Fatalf("pending=%d processing=%d, want 0/1", pending, processing)
	}
}

func TestJobRetryAccounting(t *testing.T) {
	job := &Job{Status: JobStatusPending, MaxRetries: DefaultMaxRetries}

	if job.IsRetryable() {
		t.Fatal("pending job must not be retryable")
	}

	for i := 1; i <= DefaultMaxRetries; i++ {
		job.MarkAsFailed("boom")
		if job.RetryCount != i {
			t.Fatalf("retry count = %d, want %d", job.RetryCount, i)
		}
		wantRetryable := i < DefaultMaxRetries
		if job.IsRetryable() != wantRetryable {
			t.Fatalf("after failure %d: IsRetryable = %v, want %v", i, job.IsRetryable(), wantRetryable)
		}
	}

	job.MarkAsCompleted()
	if job.ErrorMsg != "" || job.CompletedAt == nil {
		t.Fatal("MarkAsCompleted must clear the error and set the timestamp")
	}
}

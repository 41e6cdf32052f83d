package artifact

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// fakeS3 records PutObject calls and optionally fails them.
type fakeS3 struct {
	puts []s3.PutObjectInput
	err  error
}

func (f *fakeS3) PutObject(_ context.Context, params *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.puts = append(f.puts, *params)
	if f.err != nil {
		return nil, f.err
	}
	return &s3.PutObjectOutput{}, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestUploadRecording(t *testing.T) {
	fake := &fakeS3{}
	pub := NewPublisher(fake, Config{Bucket: "meet-artifacts", Region: "us-east-1"}, testLogger())

	url, err := pub.Upload(context.Background(), []byte("RIFF..."), CategoryRecording, "meet_abc_1700000000")
	if err != nil {
		t.Fatalf("Upload failed: %v", err)
	}

	if len(fake.puts) != 1 {
		t.Fatalf("Expected 1 PutObject call, got %d", len(fake.puts))
	}

	put := fake.puts[0]
	if *put.Bucket != "meet-artifacts" {
		t.Errorf("Expected bucket 'meet-artifacts', got %q", *put.Bucket)
	}
	if *put.Key != "recordings/meet_abc_1700000000.wav" {
		t.Errorf("Unexpected key %q", *put.Key)
	}
	if *put.ContentType != "audio/wav" {
		t.Errorf("Unexpected content type %q", *put.ContentType)
	}

	want := "https://meet-artifacts.s3.us-east-1.amazonaws.com/recordings/meet_abc_1700000000.wav"
	if url != want {
		t.Errorf("Expected URL %q, got %q", want, url)
	}
}

func TestUploadTranscriptWithPrefixAndBaseURL(t *testing.T) {
	fake := &fakeS3{}
	pub := NewPublisher(fake, Config{
		Bucket:        "meet-artifacts",
		Region:        "eu-west-1",
		Prefix:        "meetings",
		PublicBaseURL: "https://cdn.example.com/",
	}, testLogger())

	url, err := pub.Upload(context.Background(), []byte("Speaker 0: hi"), CategoryTranscript, "meet_abc_transcript")
	if err != nil {
		t.Fatalf("Upload failed: %v", err)
	}

	if *fake.puts[0].Key != "meetings/transcripts/meet_abc_transcript.txt" {
		t.Errorf("Unexpected key %q", *fake.puts[0].Key)
	}
	if url != "https://cdn.example.com/meetings/transcripts/meet_abc_transcript.txt" {
		t.Errorf("Unexpected URL %q", url)
	}
}

func TestUploadProviderFailure(t *testing.T) {
	fake := &fakeS3{err: errors.New("access denied")}
	pub := NewPublisher(fake, Config{Bucket: "b", Region: "r"}, testLogger())

	_, err := pub.Upload(context.Background(), []byte("x"), CategoryRecording, "id")
	if !errors.Is(err, ErrStorage) {
		t.Errorf("Expected ErrStorage, got %v", err)
	}
}

func TestUploadEmptyPayload(t *testing.T) {
	fake := &fakeS3{}
	pub := NewPublisher(fake, Config{Bucket: "b", Region: "r"}, testLogger())

	_, err := pub.Upload(context.Background(), nil, CategoryRecording, "id")
	if !errors.Is(err, ErrStorage) {
		t.Errorf("Expected ErrStorage for empty payload, got %v", err)
	}
	if len(fake.puts) != 0 {
		t.Errorf("Expected no PutObject calls, got %d", len(fake.puts))
	}
}

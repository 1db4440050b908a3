package store

import (
	"errors"
	"testing"

	"cloud.google.com/go/firestore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWriteJob struct {
	err     error
	awaited bool
}

func (j *fakeWriteJob) Results() (*firestore.WriteResult, error) {
	j.awaited = true
	return nil, j.err
}

func TestFirstWriteErrorAwaitsEveryJob(t *testing.T) {
	jobs := []writeJob{&fakeWriteJob{}, &fakeWriteJob{}, &fakeWriteJob{}}

	require.NoError(t, firstWriteError(jobs))
	for _, job := range jobs {
		assert.True(t, job.(*fakeWriteJob).awaited)
	}
}

func TestFirstWriteErrorSurfacesFailedWrite(t *testing.T) {
	failed := errors.New("deadline exceeded")
	jobs := []writeJob{&fakeWriteJob{}, &fakeWriteJob{err: failed}}

	err := firstWriteError(jobs)
	assert.ErrorIs(t, err, failed)
}

func TestFirstWriteErrorEmpty(t *testing.T) {
	assert.NoError(t, firstWriteError(nil))
}

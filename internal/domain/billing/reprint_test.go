package billing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReprint(t *testing.T) {
	be := &mockBackend{}
	r := NewReprinter(be)

	require.NoError(t, r.Reprint(context.Background(), "m1"))
	assert.Equal(t, 1, be.reprintCalls)

	// The guard is released after completion, so a second tap goes through.
	require.NoError(t, r.Reprint(context.Background(), "m1"))
	assert.Equal(t, 2, be.reprintCalls)
}

func TestReprint_BackendFailure(t *testing.T) {
	be := &mockBackend{reprintErr: &RemoteError{Op: "reprintBill", Message: "printer offline"}}
	r := NewReprinter(be)

	err := r.Reprint(context.Background(), "m1")

	require.Error(t, err)
	var remoteErr *RemoteError
	assert.ErrorAs(t, err, &remoteErr)

	// Failure releases the guard too.
	be.reprintErr = nil
	require.NoError(t, r.Reprint(context.Background(), "m1"))
}

func TestReprint_DuplicateWhileInFlight(t *testing.T) {
	be := &mockBackend{}
	r := NewReprinter(be)

	started := make(chan struct{})
	release := make(chan struct{})
	be.onReprint = func(code string) {
		if code != "m1" {
			return
		}
		close(started)
		<-release
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		assert.NoError(t, r.Reprint(context.Background(), "m1"))
	}()

	<-started
	err := r.Reprint(context.Background(), "m1")
	require.ErrorIs(t, err, ErrInFlight)

	// An unrelated order is not blocked by m1's guard.
	assert.NoError(t, r.Reprint(context.Background(), "m2"))

	close(release)
	<-done
	assert.Equal(t, 2, be.reprintCalls)
}

package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"CardKeeper/internal/cli/model"
	"CardKeeper/internal/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type recordingQueue struct{ ids []string }

func (q *recordingQueue) Enqueue(id string) bool {
	q.ids = append(q.ids, id)
	return true
}

func TestCardService_SaveCard(t *testing.T) {
	st := newTestStore(t)
	q := &recordingQueue{}
	svc := NewCardService(st, q, nil, time.Second, nil)

	env, err := svc.SaveCard(context.Background(), model.CardData{ID: "c1", Title: "Foo", CreatorID: "u1"})
	require.NoError(t, err)
	assert.True(t, env.Dirty)
	assert.Equal(t, "u1", env.CreatorID)
	assert.Equal(t, []string{"c1"}, q.ids)

	got, err := svc.GetCard(context.Background(), "c1")
	require.NoError(t, err)
	card, err := got.Card()
	require.NoError(t, err)
	assert.Equal(t, "Foo", card.Title)
}

func TestCardService_SaveCardValidation(t *testing.T) {
	q := &recordingQueue{}
	svc := NewCardService(newTestStore(t), q, nil, time.Second, nil)

	_, err := svc.SaveCard(context.Background(), model.CardData{ID: "c1"})
	assert.ErrorIs(t, err, common.ErrValidationFailed)
	_, err = svc.SaveCard(context.Background(), model.CardData{Title: "no id"})
	assert.ErrorIs(t, err, common.ErrValidationFailed)
	assert.Empty(t, q.ids)
}

func TestCardService_DeleteCardKeepsLocalDeleteOnRemoteFailure(t *testing.T) {
	st := newTestStore(t)
	remote := &mockRemote{}
	remote.On("DeleteCard", mock.Anything, "c1").Return(errors.New("offline")).Once()
	svc := NewCardService(st, nil, remote, time.Second, nil)

	_, err := svc.SaveCard(context.Background(), model.CardData{ID: "c1", Title: "Foo"})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteCard(context.Background(), "c1"))
	remote.AssertExpectations(t)

	got, err := svc.GetCard(context.Background(), "c1")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestCardService_ListCards(t *testing.T) {
	svc := NewCardService(newTestStore(t), nil, nil, 0, nil)
	for _, id := range []string{"a", "b"} {
		_, err := svc.SaveCard(context.Background(), model.CardData{ID: id, Title: id})
		require.NoError(t, err)
	}
	list, err := svc.ListCards(context.Background(), model.CardQuery{})
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

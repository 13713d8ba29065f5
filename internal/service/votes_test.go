package service

import (
	"context"
	"net/url"
	"strconv"
	"testing"

	"room_rental/internal/apperr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func vote(w *world, votee uint, scores ...int) VoteInput {
	return VoteInput{PropertyID: w.piso.ID, VoteeID: votee, Cleanliness: scores[0], Noise: scores[1], PaymentPunctuality: scores[2]}
}

func TestVoteBetweenRoommates(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()
	w.join(t, w.ana, w.rooms[0])
	w.join(t, w.luis, w.rooms[1])

	created, err := w.svc.CastVote(ctx, principal(w.ana), vote(w, w.luis.ID, 5, 4, 3))
	require.NoError(t, err)
	assert.Equal(t, VoteCreated, created.Action)
	assert.Equal(t, 0, created.Vote.Changes)
	assert.Equal(t, 5, created.Vote.Cleanliness)

	updated, err := w.svc.CastVote(ctx, principal(w.ana), vote(w, w.luis.ID, 2, 2, 2))
	require.NoError(t, err)
	assert.Equal(t, VoteUpdated, updated.Action)
	assert.Equal(t, created.Vote.ID, updated.Vote.ID)
	assert.Equal(t, 1, updated.Vote.Changes)
	assert.Equal(t, 2, updated.Vote.Cleanliness)

	again, err := w.svc.CastVote(ctx, principal(w.ana), vote(w, w.luis.ID, 3, 3, 3))
	require.NoError(t, err)
	assert.Equal(t, 2, again.Vote.Changes)
}

func TestVoteChecks(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()
	w.join(t, w.ana, w.rooms[0])

	// Self votes are rejected before anything else, even with bad scores.
	_, err := w.svc.CastVote(ctx, principal(w.ana), vote(w, w.ana.ID, 0, 9, 9))
	requireCode(t, err, apperr.CodeSelfVote)

	_, err = w.svc.CastVote(ctx, principal(w.ana), vote(w, w.luis.ID, 0, 3, 6))
	requireCode(t, err, apperr.CodeValidation)
	var appErr *apperr.Error
	require.ErrorAs(t, err, &appErr)
	assert.ElementsMatch(t, []string{"limpieza", "puntualidad_pagos"}, appErr.Details)

	in := vote(w, w.luis.ID, 3, 3, 3)
	in.PropertyID = 9999
	_, err = w.svc.CastVote(ctx, principal(w.ana), in)
	requireCode(t, err, apperr.CodePisoNotFound)

	_, err = w.svc.CastVote(ctx, principal(w.ana), vote(w, 9999, 3, 3, 3))
	requireCode(t, err, apperr.CodeUserNotFound)

	// Luis never lived in the piso.
	_, err = w.svc.CastVote(ctx, principal(w.ana), vote(w, w.luis.ID, 3, 3, 3))
	requireCode(t, err, apperr.CodeNoCohabitation)
}

func TestVoteNeedsOverlappingStays(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()

	// Ana leaves before Luis moves in.
	w.join(t, w.ana, w.rooms[0])
	_, err := w.svc.Leave(ctx, principal(w.ana))
	require.NoError(t, err)
	w.join(t, w.luis, w.rooms[1])

	_, err = w.svc.CastVote(ctx, principal(w.luis), vote(w, w.ana.ID, 4, 4, 4))
	requireCode(t, err, apperr.CodeNoCohabitation)

	// Eva overlaps with Luis and may rate him after leaving.
	w.join(t, w.eva, w.rooms[2])
	_, err = w.svc.Leave(ctx, principal(w.eva))
	require.NoError(t, err)
	res, err := w.svc.CastVote(ctx, principal(w.eva), vote(w, w.luis.ID, 4, 5, 5))
	require.NoError(t, err)
	assert.Equal(t, VoteCreated, res.Action)
}

func TestVoteSummaryAndListings(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()
	w.join(t, w.ana, w.rooms[0])
	w.join(t, w.luis, w.rooms[1])
	w.join(t, w.eva, w.rooms[2])

	empty, err := w.svc.Summary(ctx, w.luis.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), empty.Summary.Total)
	assert.Nil(t, empty.Summary.Averages["limpieza"])
	assert.Equal(t, int64(0), empty.Summary.Distribution["ruido"]["5"])

	_, err = w.svc.CastVote(ctx, principal(w.ana), vote(w, w.luis.ID, 5, 4, 3))
	require.NoError(t, err)
	_, err = w.svc.CastVote(ctx, principal(w.eva), vote(w, w.luis.ID, 4, 4, 2))
	require.NoError(t, err)
	_, err = w.svc.CastVote(ctx, principal(w.luis), vote(w, w.ana.ID, 1, 1, 1))
	require.NoError(t, err)

	sum, err := w.svc.Summary(ctx, w.luis.ID)
	require.NoError(t, err)
	assert.Equal(t, "Luis", sum.User.Name)
	assert.Equal(t, int64(2), sum.Summary.Total)
	require.NotNil(t, sum.Summary.Averages["limpieza"])
	assert.InDelta(t, 4.5, *sum.Summary.Averages["limpieza"], 0.001)
	assert.InDelta(t, 4.0, *sum.Summary.Averages["ruido"], 0.001)
	assert.InDelta(t, 2.5, *sum.Summary.Averages["puntualidad_pagos"], 0.001)
	assert.Equal(t, int64(1), sum.Summary.Distribution["limpieza"]["5"])
	assert.Equal(t, int64(1), sum.Summary.Distribution["limpieza"]["4"])
	assert.Equal(t, int64(2), sum.Summary.Distribution["ruido"]["4"])
	assert.Equal(t, int64(0), sum.Summary.Distribution["ruido"]["1"])

	_, err = w.svc.Summary(ctx, 9999)
	requireCode(t, err, apperr.CodeUserNotFound)

	received, err := w.svc.VotesReceived(ctx, w.luis.ID, url.Values{"sort": {"oldest"}})
	require.NoError(t, err)
	assert.Equal(t, int64(2), received.Total)
	require.Len(t, received.Votes, 2)
	assert.Equal(t, w.ana.ID, received.Votes[0].Voter.ID)
	assert.Equal(t, "Ana", received.Votes[0].Voter.Name)
	assert.Equal(t, "Luis", received.Votes[0].Votee.Name)
	assert.Equal(t, "Madrid", received.Votes[0].Property.City)

	mine, err := w.svc.MyVotes(ctx, principal(w.luis), url.Values{"pisoId": {strconv.FormatUint(uint64(w.piso.ID), 10)}, "limit": {"1"}})
	require.NoError(t, err)
	assert.Equal(t, int64(1), mine.Total)
	assert.Equal(t, 1, mine.TotalPages)

	_, err = w.svc.MyVotes(ctx, principal(w.luis), url.Values{"pisoId": {"abc"}})
	requireCode(t, err, apperr.CodeValidation)
}

package api

import (
	"net/http" // HTTP status codes

	"room_rental/internal/apperr"  // Error envelope
	"room_rental/internal/service" // Use cases

	"github.com/gin-gonic/gin" // Gin web framework
)

// CastVoteHandler creates or updates the caller's rating of a co-tenant
func CastVoteHandler(svc *service.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := principal(c)
		if !ok {
			return
		}
		var req service.VoteInput // Scores are checked by the service after the self-vote rule
		if !bindJSON(c, &req) {
			return
		}
		res, err := svc.CastVote(c.Request.Context(), p, req)
		if err != nil {
			apperr.Abort(c, err)
			return
		}
		status := http.StatusOK
		if res.Action == service.VoteCreated {
			status = http.StatusCreated
		}
		c.JSON(status, res)
	}
}

// VoteSummaryHandler aggregates the ratings a user received
func VoteSummaryHandler(svc *service.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c, "id")
		if !ok {
			return
		}
		sum, err := svc.Summary(c.Request.Context(), id)
		if err != nil {
			apperr.Abort(c, err)
			return
		}
		c.JSON(http.StatusOK, sum)
	}
}

// VotesReceivedHandler pages through the ratings a user received
func VotesReceivedHandler(svc *service.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c, "id")
		if !ok {
			return
		}
		page, err := svc.VotesReceived(c.Request.Context(), id, c.Request.URL.Query())
		if err != nil {
			apperr.Abort(c, err)
			return
		}
		c.JSON(http.StatusOK, page)
	}
}

// MyVotesHandler pages through the ratings the caller cast
func MyVotesHandler(svc *service.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := principal(c)
		if !ok {
			return
		}
		page, err := svc.MyVotes(c.Request.Context(), p, c.Request.URL.Query())
		if err != nil {
			apperr.Abort(c, err)
			return
		}
		c.JSON(http.StatusOK, page)
	}
}

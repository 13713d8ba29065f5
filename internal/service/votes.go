package service

import (
	"context"
	"math"
	"net/url"
	"strconv"
	"time"

	"room_rental/internal/apperr"
	"room_rental/internal/authz"
	"room_rental/internal/db"
	"room_rental/internal/domain"
	"room_rental/internal/query"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Vote upsert outcomes
const (
	VoteCreated = "created"
	VoteUpdated = "updated"
)

// VoteInput is the body of POST /api/voto-usuario.
type VoteInput struct {
	PropertyID         uint `json:"piso_id"`
	VoteeID            uint `json:"votado_id"`
	Cleanliness        int  `json:"limpieza"`
	Noise              int  `json:"ruido"`
	PaymentPunctuality int  `json:"puntualidad_pagos"`
}

type VoteResult struct {
	Action string      `json:"action"`
	Vote   domain.Vote `json:"voto"`
}

// scales are the rated columns, in response order.
var scales = []string{"limpieza", "ruido", "puntualidad_pagos"}

// UserRef is the public face of a user inside vote payloads.
type UserRef struct {
	ID        uint    `json:"id"`
	Name      string  `json:"nombre"`
	LastName  *string `json:"apellidos"`
	AvatarURL *string `json:"foto_perfil_url,omitempty"`
}

type PropertyRef struct {
	ID      uint   `json:"id"`
	Address string `json:"direccion"`
	City    string `json:"ciudad"`
}

// VoteItem is one vote with the people and piso it refers to.
type VoteItem struct {
	ID                 uint        `json:"id"`
	Cleanliness        int         `json:"limpieza"`
	Noise              int         `json:"ruido"`
	PaymentPunctuality int         `json:"puntualidad_pagos"`
	Changes            int         `json:"num_cambios"`
	CreatedAt          time.Time   `json:"created_at"`
	UpdatedAt          time.Time   `json:"updated_at"`
	Voter              UserRef     `json:"votante"`
	Votee              UserRef     `json:"votado"`
	Property           PropertyRef `json:"piso"`
}

type VotePage struct {
	Page       int        `json:"page"`
	Limit      int        `json:"limit"`
	Total      int64      `json:"total"`
	TotalPages int        `json:"totalPages"`
	Votes      []VoteItem `json:"votos"`
}

// VoteSummary aggregates the votes a user received.
type VoteSummary struct {
	User    UserRef       `json:"usuario"`
	Summary VoteAggregate `json:"resumen"`
}

type VoteAggregate struct {
	Total        int64                       `json:"total_votos"`
	Averages     map[string]*float64         `json:"medias"`
	Distribution map[string]map[string]int64 `json:"distribucion"`
}

// voteRow is the flat scan target of the vote listings.
type voteRow struct {
	ID                 uint
	Cleanliness        int       `gorm:"column:limpieza"`
	Noise              int       `gorm:"column:ruido"`
	PaymentPunctuality int       `gorm:"column:puntualidad_pagos"`
	Changes            int       `gorm:"column:num_cambios"`
	CreatedAt          time.Time `gorm:"column:created_at"`
	UpdatedAt          time.Time `gorm:"column:updated_at"`
	VoterID            uint      `gorm:"column:votante_id"`
	VoterName          string    `gorm:"column:votante_nombre"`
	VoterLastName      *string   `gorm:"column:votante_apellidos"`
	VoterAvatar        *string   `gorm:"column:votante_foto"`
	VoteeID            uint      `gorm:"column:votado_id"`
	VoteeName          string    `gorm:"column:votado_nombre"`
	VoteeLastName      *string   `gorm:"column:votado_apellidos"`
	VoteeAvatar        *string   `gorm:"column:votado_foto"`
	PropertyID         uint      `gorm:"column:piso_id"`
	Address            string    `gorm:"column:direccion"`
	City               string    `gorm:"column:ciudad"`
	TotalCount         int64     `gorm:"column:total_count"`
}

func (r voteRow) item() VoteItem {
	return VoteItem{
		ID:                 r.ID,
		Cleanliness:        r.Cleanliness,
		Noise:              r.Noise,
		PaymentPunctuality: r.PaymentPunctuality,
		Changes:            r.Changes,
		CreatedAt:          r.CreatedAt,
		UpdatedAt:          r.UpdatedAt,
		Voter:              UserRef{ID: r.VoterID, Name: r.VoterName, LastName: r.VoterLastName, AvatarURL: r.VoterAvatar},
		Votee:              UserRef{ID: r.VoteeID, Name: r.VoteeName, LastName: r.VoteeLastName, AvatarURL: r.VoteeAvatar},
		Property:           PropertyRef{ID: r.PropertyID, Address: r.Address, City: r.City},
	}
}

const voteColumns = `v.id, v.limpieza, v.ruido, v.puntualidad_pagos, v.num_cambios, v.created_at, v.updated_at,
	v.votante_id, a.nombre AS votante_nombre, a.apellidos AS votante_apellidos, a.foto_perfil_url AS votante_foto,
	v.votado_id, b.nombre AS votado_nombre, b.apellidos AS votado_apellidos, b.foto_perfil_url AS votado_foto,
	v.piso_id, p.direccion, p.ciudad,
	COUNT(*) OVER() AS total_count`

var voteListSpec = query.Spec{
	Filters: []query.Filter{
		{Key: "pisoId", Kind: query.Int, Clause: "v.piso_id = ?"},
	},
	Sorts: map[string]string{
		"newest": "v.updated_at DESC, v.id DESC",
		"oldest": "v.updated_at ASC, v.id ASC",
	},
	DefaultSort:  "newest",
	DefaultLimit: 20,
}

func checkScores(in VoteInput) []string {
	var invalid []string
	if in.PropertyID == 0 {
		invalid = append(invalid, "piso_id")
	}
	if in.VoteeID == 0 {
		invalid = append(invalid, "votado_id")
	}
	for i, v := range []int{in.Cleanliness, in.Noise, in.PaymentPunctuality} {
		if v < domain.MinScore || v > domain.MaxScore {
			invalid = append(invalid, scales[i])
		}
	}
	return invalid
}

// CastVote creates or replaces the caller's rating of a co-tenant in a piso.
// The piso row is locked so the cohabitation check and the upsert see the
// same stays.
func (s *Service) CastVote(ctx context.Context, p authz.Principal, in VoteInput) (*VoteResult, error) {
	if in.VoteeID == p.ID {
		return nil, apperr.BadRequest(apperr.CodeSelfVote)
	}
	if invalid := checkScores(in); len(invalid) > 0 {
		return nil, apperr.Validation(invalid...)
	}

	var res VoteResult
	err := s.inTx(ctx, func(tx *gorm.DB) error {
		var piso domain.Property
		if err := authz.LoadProperty(tx, in.PropertyID, true, &piso); err != nil {
			return err
		}
		var votee domain.User
		if err := tx.Where("id = ? AND activo = ?", in.VoteeID, true).First(&votee).Error; err != nil {
			if db.IsNotFound(err) {
				return apperr.NotFound(apperr.CodeUserNotFound)
			}
			return err
		}
		ok, err := s.cohabited(tx, p.ID, in.VoteeID, in.PropertyID)
		if err != nil {
			return err
		}
		if !ok {
			return apperr.Conflict(apperr.CodeNoCohabitation)
		}

		now := s.now()
		vote := domain.Vote{
			PropertyID:         in.PropertyID,
			VoterID:            p.ID,
			VoteeID:            in.VoteeID,
			Cleanliness:        in.Cleanliness,
			Noise:              in.Noise,
			PaymentPunctuality: in.PaymentPunctuality,
			CreatedAt:          now,
			UpdatedAt:          now,
		}
		err = tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "piso_id"}, {Name: "votante_id"}, {Name: "votado_id"}},
			DoUpdates: clause.Assignments(map[string]any{
				"limpieza":          in.Cleanliness,
				"ruido":             in.Noise,
				"puntualidad_pagos": in.PaymentPunctuality,
				"num_cambios":       gorm.Expr("voto_usuario.num_cambios + 1"),
				"updated_at":        now,
			}),
		}).Create(&vote).Error
		if err != nil {
			switch db.Classify(err) {
			case db.KindForeignKey:
				return apperr.NotFound(apperr.CodeNotFound)
			case db.KindCheck:
				return apperr.Validation(scales...)
			}
			return err
		}

		// The upsert may not report the id of an updated row.
		if err := tx.Where("piso_id = ? AND votante_id = ? AND votado_id = ?", in.PropertyID, p.ID, in.VoteeID).
			First(&res.Vote).Error; err != nil {
			return err
		}
		res.Action = VoteCreated
		if res.Vote.Changes > 0 {
			res.Action = VoteUpdated
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.metrics.VoteUpsert(res.Action)
	logrus.WithFields(logrus.Fields{
		"voto_id": res.Vote.ID,
		"piso_id": in.PropertyID,
		"votante": p.ID,
		"votado":  in.VoteeID,
		"action":  res.Action,
	}).Info("vote stored")
	return &res, nil
}

// cohabited reports whether a and b held stays in the piso whose periods
// overlap. Open stays count up to now; touching periods do not overlap.
func (s *Service) cohabited(tx *gorm.DB, a, b, pisoID uint) (bool, error) {
	now := s.now()
	var n int64
	err := tx.Table("usuario_habitacion AS sa").
		Joins("JOIN habitacion ha ON ha.id = sa.habitacion_id").
		Joins("JOIN usuario_habitacion sb ON sb.usuario_id = ?", b).
		Joins("JOIN habitacion hb ON hb.id = sb.habitacion_id").
		Where("sa.usuario_id = ? AND ha.piso_id = ? AND hb.piso_id = ?", a, pisoID, pisoID).
		Where("sa.fecha_entrada < COALESCE(sb.fecha_salida, ?) AND sb.fecha_entrada < COALESCE(sa.fecha_salida, ?)", now, now).
		Count(&n).Error
	return n > 0, err
}

// Summary returns the count, rounded averages and per-score distribution of
// the votes a user received.
func (s *Service) Summary(ctx context.Context, userID uint) (*VoteSummary, error) {
	tx := s.conn(ctx)
	user, err := s.loadUser(tx, userID)
	if err != nil {
		return nil, err
	}
	ref := UserRef{ID: user.ID, Name: user.Name, LastName: user.LastName, AvatarURL: user.AvatarURL}
	agg, err := aggregateVotes(tx, userID)
	if err != nil {
		return nil, err
	}
	return &VoteSummary{User: ref, Summary: *agg}, nil
}

// aggregateVotes computes the count, averages and distribution of the votes userID received.
func aggregateVotes(tx *gorm.DB, userID uint) (*VoteAggregate, error) {
	var agg struct {
		Total       int64    `gorm:"column:total"`
		Cleanliness *float64 `gorm:"column:limpieza"`
		Noise       *float64 `gorm:"column:ruido"`
		Punctuality *float64 `gorm:"column:puntualidad_pagos"`
	}
	if err := tx.Model(&domain.Vote{}).
		Select("COUNT(*) AS total, AVG(limpieza) AS limpieza, AVG(ruido) AS ruido, AVG(puntualidad_pagos) AS puntualidad_pagos").
		Where("votado_id = ?", userID).
		Scan(&agg).Error; err != nil {
		return nil, err
	}

	out := &VoteAggregate{
		Total: agg.Total,
		Averages: map[string]*float64{
			"limpieza":          round2(agg.Cleanliness),
			"ruido":             round2(agg.Noise),
			"puntualidad_pagos": round2(agg.Punctuality),
		},
		Distribution: map[string]map[string]int64{},
	}
	for _, scale := range scales {
		dist := map[string]int64{}
		for score := domain.MinScore; score <= domain.MaxScore; score++ {
			dist[strconv.Itoa(score)] = 0
		}
		var buckets []struct {
			Score int
			N     int64
		}
		if err := tx.Model(&domain.Vote{}).
			Select(scale+" AS score, COUNT(*) AS n").
			Where("votado_id = ?", userID).
			Group(scale).
			Scan(&buckets).Error; err != nil {
			return nil, err
		}
		for _, b := range buckets {
			dist[strconv.Itoa(b.Score)] = b.N
		}
		out.Distribution[scale] = dist
	}
	return out, nil
}

func round2(v *float64) *float64 {
	if v == nil {
		return nil
	}
	r := math.Round(*v*100) / 100
	return &r
}

// VotesReceived pages through the votes a user received.
func (s *Service) VotesReceived(ctx context.Context, userID uint, values url.Values) (*VotePage, error) {
	if _, err := s.loadUser(s.conn(ctx), userID); err != nil {
		return nil, err
	}
	return s.listVotes(ctx, "v.votado_id = ?", userID, values)
}

// MyVotes pages through the votes the caller cast.
func (s *Service) MyVotes(ctx context.Context, p authz.Principal, values url.Values) (*VotePage, error) {
	return s.listVotes(ctx, "v.votante_id = ?", p.ID, values)
}

func (s *Service) listVotes(ctx context.Context, scope string, userID uint, values url.Values) (*VotePage, error) {
	pg := query.ParsePage(values, voteListSpec.DefaultLimit)
	base := s.conn(ctx).Table("voto_usuario AS v").
		Joins("JOIN usuario a ON a.id = v.votante_id").
		Joins("JOIN usuario b ON b.id = v.votado_id").
		Joins("JOIN piso p ON p.id = v.piso_id").
		Where(scope, userID)
	q, err := voteListSpec.Where(base, values)
	if err != nil {
		return nil, err
	}
	q = q.Session(&gorm.Session{})

	var rows []voteRow
	if err := q.Select(voteColumns).
		Order(voteListSpec.Order(values.Get("sort"))).
		Limit(pg.Limit).Offset(pg.Offset()).
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	var first int64
	if len(rows) > 0 {
		first = rows[0].TotalCount
	}
	total, err := windowTotal(q, first, len(rows), pg)
	if err != nil {
		return nil, err
	}
	items := make([]VoteItem, len(rows))
	for i, r := range rows {
		items[i] = r.item()
	}
	return &VotePage{Page: pg.Page, Limit: pg.Limit, Total: total, TotalPages: pg.TotalPages(total), Votes: items}, nil
}

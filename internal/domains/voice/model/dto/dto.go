package dto

import (
	"feastline/internal/domains/voice/model"
	"feastline/shared"
	"feastline/shared/constant"
	gDto "feastline/shared/dto"
	"feastline/shared/timezone"
)

type SessionResponse struct {
	ID        string  `json:"id"`
	Status    string  `json:"status"`
	Outcome   string  `json:"outcome"`
	BookingID *string `json:"booking_id"`
	LastError *string `json:"last_error"`
	OpenedAt  string  `json:"opened_at"`
	ClosedAt  *string `json:"closed_at"`
	gDto.Metadata
}

func (s *SessionResponse) FromModel(m model.SessionRecord) {
	s.ID = m.ID
	s.Status = m.Status
	s.Outcome = m.Outcome
	s.BookingID = m.BookingID
	s.LastError = m.LastError
	s.OpenedAt = timezone.Format(m.OpenedAt, constant.DateFormat)

	if m.ClosedAt != nil {
		closedAt := timezone.Format(*m.ClosedAt, constant.DateFormat)
		s.ClosedAt = &closedAt
	}

	s.Metadata.FromModel(m.Metadata)
}

type GetSessionsResponse struct {
	Sessions   []SessionResponse `json:"sessions"`
	Pagination gDto.Pagination   `json:"pagination"`
}

func (r *GetSessionsResponse) FromModels(models []model.SessionRecord, total int, params gDto.QueryParams) {
	r.Pagination = gDto.Pagination{
		Page:      params.Page,
		Limit:     params.Limit,
		Total:     total,
		TotalPage: shared.CalculateTotalPage(total, params.Limit),
	}

	r.Sessions = make([]SessionResponse, len(models))
	for i, mod := range models {
		r.Sessions[i].FromModel(mod)
	}
}


package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/radieske/wager-engine/internal/api/dto"
	"github.com/radieske/wager-engine/internal/challenge"
	"github.com/radieske/wager-engine/internal/ledger"
	"github.com/radieske/wager-engine/internal/match"
	"github.com/radieske/wager-engine/internal/settlement"
	"github.com/radieske/wager-engine/internal/tournament"
	"github.com/radieske/wager-engine/internal/wager"
	"github.com/radieske/wager-engine/pkg/contracts/events"
)

// Server expõe as operações do motor pela API REST. A camada de autenticação
// fica fora: os handlers recebem account ids já autenticados.
type Server struct {
	log         *zap.Logger
	ledger      ledger.Store
	matches     *match.Service
	book        *wager.Book
	escrow      *challenge.Escrow
	pool        *tournament.Pool
	coordinator *settlement.Coordinator
}

func NewServer(log *zap.Logger, lg ledger.Store, matches *match.Service, book *wager.Book,
	escrow *challenge.Escrow, pool *tournament.Pool, coordinator *settlement.Coordinator) *Server {
	return &Server{
		log:         log,
		ledger:      lg,
		matches:     matches,
		book:        book,
		escrow:      escrow,
		pool:        pool,
		coordinator: coordinator,
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Post("/accounts/{id}/deposit", s.deposit)
	r.Get("/accounts/{id}/balance", s.getBalance)

	r.Post("/matches", s.createMatch)
	r.Get("/matches/{id}", s.getMatch)
	r.Post("/matches/{id}/start", s.startMatch)
	r.Post("/matches/{id}/resolve", s.resolveMatch)

	r.Post("/wagers", s.placeWager)
	r.Get("/wagers/{id}", s.getWager)

	r.Post("/challenges", s.createChallenge)
	r.Get("/challenges/{id}", s.getChallenge)
	r.Post("/challenges/{id}/respond", s.respondChallenge)
	r.Post("/challenges/{id}/complete", s.completeChallenge)
	r.Post("/challenges/{id}/cancel", s.cancelChallenge)

	r.Post("/tournaments", s.createTournament)
	r.Get("/tournaments/{id}", s.getTournament)
	r.Post("/tournaments/{id}/join", s.joinTournament)
	r.Post("/tournaments/{id}/start", s.startTournament)
	r.Post("/tournaments/{id}/resolve", s.resolveTournament)
	r.Post("/tournaments/{id}/payout", s.awardPayout)

	return r
}

// statusFor mapeia a taxonomia de erros do motor pra códigos HTTP.
func statusFor(err error) int {
	switch {
	case errors.Is(err, ledger.ErrNotFound),
		errors.Is(err, match.ErrNotFound),
		errors.Is(err, wager.ErrNotFound),
		errors.Is(err, challenge.ErrNotFound),
		errors.Is(err, tournament.ErrNotFound):
		return http.StatusNotFound

	case errors.Is(err, ledger.ErrInsufficientFunds),
		errors.Is(err, wager.ErrMatchNotBettable),
		errors.Is(err, wager.ErrOddChanged),
		errors.Is(err, match.ErrInvalidState),
		errors.Is(err, match.ErrStartTimeNotReached),
		errors.Is(err, challenge.ErrInvalidState),
		errors.Is(err, tournament.ErrInvalidState),
		errors.Is(err, tournament.ErrNotOpen),
		errors.Is(err, tournament.ErrAlreadyJoined):
		return http.StatusConflict

	case errors.Is(err, challenge.ErrNotOpponent):
		return http.StatusForbidden

	case errors.Is(err, wager.ErrInvalidOutcome),
		errors.Is(err, wager.ErrInvalidStake),
		errors.Is(err, wager.ErrInvalidOdd),
		errors.Is(err, match.ErrInvalidWinner),
		errors.Is(err, match.ErrTooFewParticipants),
		errors.Is(err, challenge.ErrSelfChallenge),
		errors.Is(err, challenge.ErrInvalidStake),
		errors.Is(err, challenge.ErrNotAParty),
		errors.Is(err, tournament.ErrNotAParticipant),
		errors.Is(err, tournament.ErrSamePlacement),
		errors.Is(err, tournament.ErrInvalidEntryFee),
		errors.Is(err, tournament.ErrNameRequired),
		errors.Is(err, ledger.ErrInvalidAmount):
		return http.StatusBadRequest
	}
	// ErrInvariantViolation e erros de infraestrutura
	return http.StatusInternalServerError
}

func (s *Server) fail(w http.ResponseWriter, err error) {
	code := statusFor(err)
	if code == http.StatusInternalServerError {
		s.log.Error("request failed", zap.Error(err))
	}
	writeJSON(w, code, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return false
	}
	return true
}

// --- contas ---

func (s *Server) deposit(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req dto.DepositRequest
	if !decode(w, r, &req) {
		return
	}
	if req.AmountCents <= 0 {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}
	if _, err := s.ledger.GetOrCreate(r.Context(), id); err != nil {
		s.fail(w, err)
		return
	}
	bal, err := s.ledger.Deposit(r.Context(), id, req.AmountCents, req.ExternalRef)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.BalanceResponse{AccountID: id, BalanceCents: bal})
}

func (s *Server) getBalance(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	bal, err := s.ledger.Balance(r.Context(), id)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.BalanceResponse{AccountID: id, BalanceCents: bal})
}

// --- partidas ---

func matchResponse(m *match.Match) dto.MatchResponse {
	return dto.MatchResponse{
		MatchID:         m.ID,
		Participants:    m.Participants,
		Status:          string(m.Status),
		StartTime:       m.StartTime,
		BettingDeadline: m.BettingDeadline,
		Winner:          m.Winner,
		Settled:         m.Settled,
	}
}

func (s *Server) createMatch(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateMatchRequest
	if !decode(w, r, &req) {
		return
	}
	m, err := s.matches.Create(r.Context(), req.Participants, req.StartTime)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, matchResponse(m))
}

func (s *Server) getMatch(w http.ResponseWriter, r *http.Request) {
	m, err := s.matches.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, matchResponse(m))
}

func (s *Server) startMatch(w http.ResponseWriter, r *http.Request) {
	m, err := s.matches.Start(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, matchResponse(m))
}

func (s *Server) resolveMatch(w http.ResponseWriter, r *http.Request) {
	var req dto.ResolveMatchRequest
	if !decode(w, r, &req) {
		return
	}
	if !req.Cancel && req.Winner == "" {
		http.Error(w, "winner or cancel required", http.StatusBadRequest)
		return
	}
	m, err := s.matches.Resolve(r.Context(), chi.URLParam(r, "id"), req.Winner, req.Cancel)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, matchResponse(m))
}

// --- apostas ---

func wagerResponse(wg *wager.Wager) dto.WagerResponse {
	return dto.WagerResponse{
		WagerID:    wg.ID,
		AccountID:  wg.AccountID,
		MatchID:    wg.MatchID,
		StakeCents: wg.StakeCents,
		Outcome:    wg.Outcome,
		OddValue:   wg.OddValue,
		Status:     string(wg.Status),
		Settled:    wg.Settled,
	}
}

func (s *Server) placeWager(w http.ResponseWriter, r *http.Request) {
	var req dto.PlaceWagerRequest
	if !decode(w, r, &req) {
		return
	}
	if req.AccountID == "" || req.MatchID == "" || req.StakeCents <= 0 || req.Outcome == "" || req.OddValue <= 0 {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}
	wg, err := s.book.Place(r.Context(), req.AccountID, req.MatchID, req.StakeCents, req.Outcome, req.OddValue)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, wagerResponse(wg))
}

func (s *Server) getWager(w http.ResponseWriter, r *http.Request) {
	wg, err := s.book.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, wagerResponse(wg))
}

// --- desafios ---

func challengeResponse(c *challenge.Challenge) dto.ChallengeResponse {
	return dto.ChallengeResponse{
		ChallengeID: c.ID,
		Challenger:  c.Challenger,
		Opponent:    c.Opponent,
		Game:        c.Game,
		StakeCents:  c.StakeCents,
		Status:      string(c.Status),
		Winner:      c.Winner,
		Settled:     c.Settled,
	}
}

func (s *Server) createChallenge(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateChallengeRequest
	if !decode(w, r, &req) {
		return
	}
	if req.ChallengerID == "" || req.OpponentID == "" {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}
	c, err := s.escrow.Request(r.Context(), req.ChallengerID, req.OpponentID, req.StakeCents, req.Game)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, challengeResponse(c))
}

func (s *Server) getChallenge(w http.ResponseWriter, r *http.Request) {
	c, err := s.escrow.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, challengeResponse(c))
}

func (s *Server) respondChallenge(w http.ResponseWriter, r *http.Request) {
	var req dto.RespondChallengeRequest
	if !decode(w, r, &req) {
		return
	}
	if req.ResponderID == "" {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}
	c, err := s.escrow.Respond(r.Context(), chi.URLParam(r, "id"), req.ResponderID, req.Accept)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, challengeResponse(c))
}

func (s *Server) completeChallenge(w http.ResponseWriter, r *http.Request) {
	var req dto.CompleteChallengeRequest
	if !decode(w, r, &req) {
		return
	}
	if req.WinnerID == "" {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}
	c, err := s.escrow.Complete(r.Context(), chi.URLParam(r, "id"), req.WinnerID)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, challengeResponse(c))
}

func (s *Server) cancelChallenge(w http.ResponseWriter, r *http.Request) {
	c, err := s.escrow.Cancel(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, challengeResponse(c))
}

// --- torneios ---

func tournamentResponse(t *tournament.Tournament) dto.TournamentResponse {
	return dto.TournamentResponse{
		TournamentID:   t.ID,
		Name:           t.Name,
		HostID:         t.HostID,
		EntryFeeCents:  t.EntryFeeCents,
		PrizePoolCents: t.PrizePoolCents,
		Participants:   len(t.Entries),
		Status:         string(t.Status),
		PayoutStatus:   string(t.PayoutStatus),
		Winner:         t.Winner,
		RunnerUp:       t.RunnerUp,
	}
}

func (s *Server) createTournament(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateTournamentRequest
	if !decode(w, r, &req) {
		return
	}
	if req.HostID == "" {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}
	t, err := s.pool.Create(r.Context(), req.HostID, req.Name, req.EntryFeeCents, req.SeedCents)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, tournamentResponse(t))
}

func (s *Server) getTournament(w http.ResponseWriter, r *http.Request) {
	t, err := s.pool.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tournamentResponse(t))
}

func (s *Server) joinTournament(w http.ResponseWriter, r *http.Request) {
	var req dto.JoinTournamentRequest
	if !decode(w, r, &req) {
		return
	}
	if req.AccountID == "" {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}
	t, err := s.pool.Join(r.Context(), chi.URLParam(r, "id"), req.AccountID)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tournamentResponse(t))
}

func (s *Server) startTournament(w http.ResponseWriter, r *http.Request) {
	t, err := s.pool.Start(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tournamentResponse(t))
}

func (s *Server) resolveTournament(w http.ResponseWriter, r *http.Request) {
	var req dto.ResolveTournamentRequest
	if !decode(w, r, &req) {
		return
	}
	if !req.Cancel && req.Winner == "" {
		http.Error(w, "winner or cancel required", http.StatusBadRequest)
		return
	}
	t, err := s.pool.Resolve(r.Context(), chi.URLParam(r, "id"), req.Winner, req.RunnerUp, req.Cancel)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tournamentResponse(t))
}

// awardPayout roda a liquidação do torneio inline e devolve o resumo da
// distribuição; repetir a chamada não paga ninguém de novo.
func (s *Server) awardPayout(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	sum, err := s.coordinator.OnTerminalState(r.Context(), events.KindTournament, id)
	if err != nil {
		s.fail(w, err)
		return
	}
	resp := dto.PayoutSummaryResponse{TournamentID: id, PaidOutCents: sum.PaidOutCents}
	for _, p := range sum.Payouts {
		resp.Payouts = append(resp.Payouts, dto.PayoutItem{AccountID: p.AccountID, AmountCents: p.AmountCents})
	}
	writeJSON(w, http.StatusOK, resp)
}

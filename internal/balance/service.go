package balance

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/fkhayef/splitledger/internal/group"
	"github.com/fkhayef/splitledger/internal/ledger"
	"github.com/fkhayef/splitledger/internal/rates"
	"github.com/fkhayef/splitledger/internal/user"
	"github.com/fkhayef/splitledger/pkg/currency"
)

// ErrInvalidCurrency is returned for a view currency that is not a three-letter code.
var ErrInvalidCurrency = errors.New("invalid currency code")

// Store reads ledger records. *Repository implements it.
type Store interface {
	GroupRecords(ctx context.Context, groupID int64) (*Records, error)
	UserRecords(ctx context.Context, userID int64) (*Records, error)
}

// Groups answers membership questions.
type Groups interface {
	Authorize(ctx context.Context, groupID, userID int64) (*group.Group, *group.GroupMember, error)
}

// Users resolves display names and preferred currencies.
type Users interface {
	GetByID(ctx context.Context, id int64) (*user.User, error)
	Usernames(ctx context.Context, ids []int64) (map[int64]string, error)
}

// RateSource hands out the current rate table.
type RateSource interface {
	Snapshot() rates.Snapshot
}

// Service computes balances on demand. Nothing is cached between requests.
type Service struct {
	repo   Store
	groups Groups
	users  Users
	rates  RateSource
	log    logrus.FieldLogger
}

// NewService creates a new balance service
func NewService(repo Store, groups Groups, users Users, rates RateSource, log logrus.FieldLogger) *Service {
	return &Service{
		repo:   repo,
		groups: groups,
		users:  users,
		rates:  rates,
		log:    log,
	}
}

// groupView is everything one group computation needs.
type groupView struct {
	group   *group.Group
	records *Records
	view    currency.Code
	rates   rates.Snapshot
	names   map[int64]string
	missing []currency.Code
}

func (s *Service) loadGroup(ctx context.Context, groupID, userID int64, view currency.Code) (*groupView, error) {
	g, _, err := s.groups.Authorize(ctx, groupID, userID)
	if err != nil {
		return nil, err
	}

	view, err = pickCurrency(view, g.BaseCurrency)
	if err != nil {
		return nil, err
	}

	recs, err := s.repo.GroupRecords(ctx, groupID)
	if err != nil {
		return nil, err
	}

	names, err := s.users.Usernames(ctx, recs.Members)
	if err != nil {
		return nil, err
	}

	gv := &groupView{
		group:   g,
		records: recs,
		view:    view,
		rates:   s.rates.Snapshot(),
		names:   names,
	}
	gv.missing = s.checkRates(recs, view, gv.rates.Rates, logrus.Fields{"group_id": groupID})
	return gv, nil
}

// GroupBalances returns every member's net balance in view, or the group's base currency.
func (s *Service) GroupBalances(ctx context.Context, groupID, userID int64, view currency.Code) (*GroupBalancesResponse, error) {
	gv, err := s.loadGroup(ctx, groupID, userID, view)
	if err != nil {
		return nil, err
	}

	balances := ledger.ComputeBalances(gv.records.Members, gv.records.Expenses, gv.records.Payments, gv.view, gv.rates.Rates)

	out := make([]*MemberBalanceResponse, 0, len(gv.records.Members))
	for _, id := range gv.records.Members {
		b := balances[id]
		out = append(out, &MemberBalanceResponse{
			UserID:   id,
			Username: gv.names[id],
			Balance:  b,
			Message:  memberMessage(gv.names[id], id == userID, b, gv.view),
		})
	}

	return &GroupBalancesResponse{
		GroupID:      groupID,
		Currency:     gv.view,
		RatesAsOf:    gv.rates.AsOf,
		Settled:      balances.Settled(),
		Balances:     out,
		MissingRates: gv.missing,
	}, nil
}

// SettlementPlan suggests the payments that bring every member of the group to zero.
func (s *Service) SettlementPlan(ctx context.Context, groupID, userID int64, view currency.Code) (*SettlementPlanResponse, error) {
	gv, err := s.loadGroup(ctx, groupID, userID, view)
	if err != nil {
		return nil, err
	}

	balances := ledger.ComputeBalances(gv.records.Members, gv.records.Expenses, gv.records.Payments, gv.view, gv.rates.Rates)
	transfers := ledger.PlanSettlement(balances)

	out := make([]*TransferResponse, len(transfers))
	for i, t := range transfers {
		out[i] = &TransferResponse{
			FromUserID:   t.From,
			FromUsername: gv.names[t.From],
			ToUserID:     t.To,
			ToUsername:   gv.names[t.To],
			Amount:       t.Amount,
			Message:      fmt.Sprintf("%s pays %s %s %s", gv.names[t.From], gv.names[t.To], t.Amount, gv.view),
		}
	}

	s.log.WithFields(logrus.Fields{
		"group_id":  groupID,
		"currency":  gv.view,
		"transfers": len(out),
	}).Debug("settlement plan computed")

	return &SettlementPlanResponse{
		GroupID:      groupID,
		Currency:     gv.view,
		RatesAsOf:    gv.rates.AsOf,
		Transfers:    out,
		MissingRates: gv.missing,
	}, nil
}

// Summary returns the group dashboard: total spend and each member's paid, share and net.
func (s *Service) Summary(ctx context.Context, groupID, userID int64, view currency.Code) (*SummaryResponse, error) {
	gv, err := s.loadGroup(ctx, groupID, userID, view)
	if err != nil {
		return nil, err
	}

	sum := ledger.Summarize(gv.records.Members, gv.records.Expenses, gv.records.Payments, gv.view, gv.rates.Rates)

	members := make([]*MemberSummaryResponse, len(sum.Members))
	for i, m := range sum.Members {
		members[i] = &MemberSummaryResponse{MemberSummary: m, Username: gv.names[m.UserID]}
	}

	return &SummaryResponse{
		GroupID:      groupID,
		GroupName:    gv.group.Name,
		Currency:     gv.view,
		RatesAsOf:    gv.rates.AsOf,
		TotalSpent:   sum.TotalSpent,
		ExpenseCount: sum.ExpenseCount,
		PaymentCount: sum.PaymentCount,
		Members:      members,
		MissingRates: gv.missing,
	}, nil
}

// MyBalances returns the caller's net position against everyone they share an expense or
// payment with, across all groups, in view or the caller's preferred currency.
func (s *Service) MyBalances(ctx context.Context, userID int64, view currency.Code) (*MyBalancesResponse, error) {
	me, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	view, err = pickCurrency(view, me.DefaultCurrency)
	if err != nil {
		return nil, err
	}

	recs, err := s.repo.UserRecords(ctx, userID)
	if err != nil {
		return nil, err
	}

	snap := s.rates.Snapshot()
	missing := s.checkRates(recs, view, snap.Rates, logrus.Fields{"user_id": userID})
	pairs := ledger.Pairwise(userID, recs.Expenses, recs.Payments, view, snap.Rates)

	ids := make([]int64, 0, len(pairs))
	for id := range pairs {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	names, err := s.users.Usernames(ctx, ids)
	if err != nil {
		return nil, err
	}

	out := make([]*NetBalanceResponse, len(ids))
	for i, id := range ids {
		out[i] = &NetBalanceResponse{
			UserID:   id,
			Username: names[id],
			Amount:   pairs[id],
			Message:  pairMessage(names[id], pairs[id], view),
		}
	}

	return &MyBalancesResponse{
		Currency:     view,
		RatesAsOf:    snap.AsOf,
		Net:          pairs.Total(),
		Balances:     out,
		MissingRates: missing,
	}, nil
}

func (s *Service) checkRates(recs *Records, view currency.Code, table currency.RateTable, fields logrus.Fields) []currency.Code {
	missing := missingRates(recs, view, table)
	if len(missing) > 0 {
		s.log.WithFields(fields).WithFields(logrus.Fields{
			"currency": view,
			"missing":  missing,
		}).Warn("exchange rates missing, amounts counted unconverted")
	}
	return missing
}

// pickCurrency validates an explicit view currency or falls back to def.
func pickCurrency(view, def currency.Code) (currency.Code, error) {
	if view == "" {
		return def, nil
	}
	view = currency.Normalize(string(view))
	if !view.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidCurrency, view)
	}
	return view, nil
}

package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"guestlist/internal/guest/metrics"
	"guestlist/internal/guest/models"
	"guestlist/internal/guest/service/mocks"
	guestStore "guestlist/internal/guest/store/guest"
	dErrors "guestlist/pkg/domain-errors"
	"guestlist/pkg/platform/sentinel"
	"guestlist/pkg/requestcontext"
)

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks Store

type RegistrySuite struct {
	suite.Suite
	ctx     context.Context
	store   *guestStore.InMemory
	metrics *metrics.Metrics
	service *Service
}

func TestRegistrySuite(t *testing.T) {
	suite.Run(t, new(RegistrySuite))
}

func (s *RegistrySuite) SetupTest() {
	s.ctx = requestcontext.WithTime(context.Background(), time.Date(2026, 3, 14, 18, 0, 0, 0, time.UTC))
	s.store = guestStore.NewInMemory()
	s.metrics = metrics.New(prometheus.NewRegistry())
	s.service = New(s.store, WithMetrics(s.metrics), WithStoreTimeout(time.Second))
}

func (s *RegistrySuite) registerLeader(name, lastname, email string) *models.Guest {
	g, err := s.service.Register(s.ctx, models.RegisterRequest{Name: name, Lastname: lastname, Role: "leader", Email: email})
	s.Require().NoError(err)
	return g
}

func (s *RegistrySuite) registerCompanion(name, lastname string, leaderID int64) *models.Guest {
	g, err := s.service.Register(s.ctx, models.RegisterRequest{
		Name: name, Lastname: lastname, Role: "companion", Leader: models.LeaderRef(fmt.Sprint(leaderID)),
	})
	s.Require().NoError(err)
	return g
}

func (s *RegistrySuite) requireCode(err error, code dErrors.Code) {
	s.T().Helper()
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, code), "expected %s, got %v", code, err)
}

func (s *RegistrySuite) count() int {
	n, err := s.store.Count(s.ctx)
	s.Require().NoError(err)
	return n
}

func (s *RegistrySuite) TestRegisterValidation() {
	cases := []struct {
		name string
		req  models.RegisterRequest
	}{
		{"empty name", models.RegisterRequest{Lastname: "Lopez", Role: "leader", Email: "a@x.com"}},
		{"digit in name", models.RegisterRequest{Name: "An4", Lastname: "Lopez", Role: "leader", Email: "a@x.com"}},
		{"punctuation in lastname", models.RegisterRequest{Name: "Ana", Lastname: "Lopez!", Role: "leader", Email: "a@x.com"}},
		{"unknown role", models.RegisterRequest{Name: "Ana", Lastname: "Lopez", Role: "host", Email: "a@x.com"}},
		{"unknown menu", models.RegisterRequest{Name: "Ana", Lastname: "Lopez", Role: "leader", Email: "a@x.com", Menu: "keto"}},
		{"leader without email", models.RegisterRequest{Name: "Ana", Lastname: "Lopez", Role: "leader"}},
		{"companion without leader", models.RegisterRequest{Name: "Bob", Lastname: "Lopez", Role: "companion"}},
		{"companion with non-numeric leader", models.RegisterRequest{Name: "Bob", Lastname: "Lopez", Role: "companion", Leader: "abc"}},
	}
	for _, tc := range cases {
		s.Run(tc.name, func() {
			_, err := s.service.Register(s.ctx, tc.req)
			s.requireCode(err, dErrors.CodeValidation)
		})
	}
	s.Zero(s.count(), "validation failures insert nothing")
	s.Equal(float64(len(cases)), promtest.ToFloat64(s.metrics.RegistrationsRejected.WithLabelValues(metrics.ReasonInvalid)))
}

func (s *RegistrySuite) TestRegisterLeader() {
	g, err := s.service.Register(s.ctx, models.RegisterRequest{
		Name: " Ana ", Lastname: "Lopez", Role: "leader", Email: "ana@x.com", Menu: "Vegano",
	})
	s.Require().NoError(err)
	s.NotZero(g.ID)
	s.Equal("Ana", g.Name)
	s.True(g.IsLeader)
	s.Nil(g.CompanionOf)
	s.Equal("vegano", g.Menu)
	s.Equal(requestcontext.Now(s.ctx), g.CreatedAt)
	s.Equal(1.0, promtest.ToFloat64(s.metrics.GuestsRegistered.WithLabelValues("leader")))
}

func (s *RegistrySuite) TestRegisterConflicts() {
	s.registerLeader("Ana", "Lopez", "ana@x.com")

	s.Run("same name in any case", func() {
		_, err := s.service.Register(s.ctx, models.RegisterRequest{Name: "ANA", Lastname: "lopez", Role: "leader", Email: "new@x.com"})
		s.requireCode(err, dErrors.CodeConflict)
		de, _ := dErrors.As(err)
		s.Equal("ANA lopez ya está registrado.", de.Message)
	})

	s.Run("same name as companion", func() {
		_, err := s.service.Register(s.ctx, models.RegisterRequest{Name: "Ana", Lastname: "Lopez", Role: "companion", Leader: "1"})
		s.requireCode(err, dErrors.CodeConflict)
	})

	s.Run("same email", func() {
		_, err := s.service.Register(s.ctx, models.RegisterRequest{Name: "Eva", Lastname: "Diaz", Role: "leader", Email: "ana@x.com"})
		s.requireCode(err, dErrors.CodeConflict)
		de, _ := dErrors.As(err)
		s.Equal(MsgDuplicateEmail, de.Message)
	})

	s.Equal(1, s.count())
}

func (s *RegistrySuite) TestRegisterCompanion() {
	ana := s.registerLeader("Ana", "Lopez", "ana@x.com")

	s.Run("links to leader", func() {
		bob := s.registerCompanion("Bob", "Lopez", ana.ID)
		s.False(bob.IsLeader)
		s.Require().NotNil(bob.CompanionOf)
		s.Equal(ana.ID, *bob.CompanionOf)
		s.Empty(bob.Email)
	})

	s.Run("dangling leader reference is not found", func() {
		before := s.count()
		_, err := s.service.Register(s.ctx, models.RegisterRequest{Name: "Cata", Lastname: "Mora", Role: "companion", Leader: "999"})
		s.requireCode(err, dErrors.CodeNotFound)
		s.Equal(before, s.count(), "no record is created")
	})

	s.Run("companion cannot lead", func() {
		bob, err := s.store.FindByName(s.ctx, "Bob", "Lopez")
		s.Require().NoError(err)
		_, err = s.service.Register(s.ctx, models.RegisterRequest{
			Name: "Dani", Lastname: "Mora", Role: "companion", Leader: models.LeaderRef(fmt.Sprint(bob.ID)),
		})
		s.requireCode(err, dErrors.CodeNotFound)
	})
}

// TestGroupLifecycle walks a leader and companion through registration,
// group lookup, and deletion.
func (s *RegistrySuite) TestGroupLifecycle() {
	ana := s.registerLeader("Ana", "Lopez", "ana@x.com")
	bob := s.registerCompanion("Bob", "Lopez", ana.ID)
	eva := s.registerLeader("Eva", "Diaz", "eva@x.com")
	s.registerCompanion("Fede", "Diaz", eva.ID)

	group, err := s.service.GetGroup(s.ctx, "ana@x.com")
	s.Require().NoError(err)
	s.Equal([]string{"Ana", "Bob"}, names(group))

	err = s.service.Delete(s.ctx, ana.ID)
	s.requireCode(err, dErrors.CodeInvariantViolation)

	s.Require().NoError(s.service.Delete(s.ctx, bob.ID))

	group, err = s.service.GetGroup(s.ctx, "ana@x.com")
	s.Require().NoError(err)
	s.Equal([]string{"Ana"}, names(group))

	err = s.service.Delete(s.ctx, bob.ID)
	s.requireCode(err, dErrors.CodeNotFound)
}

func (s *RegistrySuite) TestGetGroupErrors() {
	_, err := s.service.GetGroup(s.ctx, "  ")
	s.requireCode(err, dErrors.CodeValidation)

	_, err = s.service.GetGroup(s.ctx, "nobody@x.com")
	s.requireCode(err, dErrors.CodeNotFound)
}

func (s *RegistrySuite) TestLeaderDeletionRejectedWithoutCompanions() {
	ana := s.registerLeader("Ana", "Lopez", "ana@x.com")
	err := s.service.Delete(s.ctx, ana.ID)
	s.requireCode(err, dErrors.CodeInvariantViolation)
	s.Equal(1, s.count())
}

func (s *RegistrySuite) TestEdit() {
	ana := s.registerLeader("Ana", "Lopez", "ana@x.com")
	s.registerLeader("Eva", "Diaz", "eva@x.com")

	s.Run("renames and sets menu", func() {
		celiaco := "celiaco"
		g, err := s.service.Edit(s.ctx, ana.ID, "Ana María", "López", &celiaco)
		s.Require().NoError(err)
		s.Equal("Ana María", g.Name)
		s.Equal("celiaco", g.Menu)
		s.Equal("ana@x.com", g.Email)
		s.True(g.IsLeader)
	})

	s.Run("invalid name", func() {
		_, err := s.service.Edit(s.ctx, ana.ID, "Ana1", "Lopez", nil)
		s.requireCode(err, dErrors.CodeValidation)
	})

	s.Run("invalid menu", func() {
		bad := "keto"
		_, err := s.service.Edit(s.ctx, ana.ID, "Ana", "Lopez", &bad)
		s.requireCode(err, dErrors.CodeValidation)
	})

	s.Run("unknown id", func() {
		_, err := s.service.Edit(s.ctx, 999, "Ana", "Lopez", nil)
		s.requireCode(err, dErrors.CodeNotFound)
	})

	s.Run("rename onto another guest", func() {
		_, err := s.service.Edit(s.ctx, ana.ID, "Eva", "Diaz", nil)
		s.requireCode(err, dErrors.CodeConflict)
	})
}

func (s *RegistrySuite) TestListings() {
	ana := s.registerLeader("Ana", "Lopez", "ana@x.com")
	eva := s.registerLeader("Eva", "Diaz", "eva@x.com")
	s.registerCompanion("Bob", "Zapata", ana.ID)
	s.registerCompanion("Cata", "Alvarez", ana.ID)
	s.registerCompanion("Fede", "Mora", eva.ID)

	all, err := s.service.ListAll(s.ctx, "")
	s.Require().NoError(err)
	s.Equal([]string{"Cata", "Eva", "Ana", "Fede", "Bob"}, names(all))

	leaders, err := s.service.ListLeaders(s.ctx)
	s.Require().NoError(err)
	s.Equal([]string{"Eva", "Ana"}, names(leaders))

	companions, err := s.service.ListCompanionsOf(s.ctx, ana.ID)
	s.Require().NoError(err)
	s.Equal([]string{"Cata", "Bob"}, names(companions))

	none, err := s.service.ListCompanionsOf(s.ctx, 999)
	s.Require().NoError(err)
	s.Empty(none)

	filtered, err := s.service.ListAll(s.ctx, "lop")
	s.Require().NoError(err)
	s.Equal([]string{"Ana"}, names(filtered))
}

func (s *RegistrySuite) TestStatistics() {
	ana := s.registerLeader("Ana", "Lopez", "ana@x.com")
	_, err := s.service.Register(s.ctx, models.RegisterRequest{Name: "Bob", Lastname: "Lopez", Role: "companion", Leader: models.LeaderRef(fmt.Sprint(ana.ID)), Menu: "vegano"})
	s.Require().NoError(err)
	_, err = s.service.Register(s.ctx, models.RegisterRequest{Name: "Cata", Lastname: "Lopez", Role: "companion", Leader: models.LeaderRef(fmt.Sprint(ana.ID)), Menu: "vegano"})
	s.Require().NoError(err)

	stats, err := s.service.Statistics(s.ctx)
	s.Require().NoError(err)
	s.Equal(3, stats.Total)
	s.Equal(map[string]int{
		"sin_condicion":        0,
		"vegetariano":          0,
		"vegano":               2,
		"celiaco":              0,
		models.MenuUnspecified: 1,
	}, stats.ByMenu)
}

func TestParseID(t *testing.T) {
	for _, ok := range []string{"1", " 42 "} {
		if _, err := ParseID(ok); err != nil {
			t.Fatalf("expected %q to parse: %v", ok, err)
		}
	}
	for _, bad := range []string{"", "0", "-3", "abc", "1.5"} {
		if _, err := ParseID(bad); err == nil {
			t.Fatalf("expected %q to be rejected", bad)
		}
	}
}

// StoreFailureSuite drives the registry with a mocked store to cover outage
// and timeout paths.
type StoreFailureSuite struct {
	suite.Suite
	ctx     context.Context
	store   *mocks.MockStore
	service *Service
}

func TestStoreFailureSuite(t *testing.T) {
	suite.Run(t, new(StoreFailureSuite))
}

func (s *StoreFailureSuite) SetupTest() {
	ctrl := gomock.NewController(s.T())
	s.ctx = context.Background()
	s.store = mocks.NewMockStore(ctrl)
	s.service = New(s.store, WithStoreTimeout(50*time.Millisecond))
}

func (s *StoreFailureSuite) TestUnavailableStoreIsServiceUnavailable() {
	s.store.EXPECT().FindByName(gomock.Any(), "Ana", "Lopez").
		Return(nil, fmt.Errorf("find guest by name: %w", sentinel.ErrUnavailable))

	_, err := s.service.Register(s.ctx, models.RegisterRequest{Name: "Ana", Lastname: "Lopez", Role: "leader", Email: "ana@x.com"})
	s.True(dErrors.HasCode(err, dErrors.CodeUnavailable))
}

func (s *StoreFailureSuite) TestStoreCallsAreBounded() {
	s.store.EXPECT().FindByEmail(gomock.Any(), "ana@x.com").
		DoAndReturn(func(ctx context.Context, _ string) (*models.Guest, error) {
			deadline, ok := ctx.Deadline()
			s.True(ok, "store call must carry a deadline")
			s.WithinDuration(time.Now().Add(50*time.Millisecond), deadline, 50*time.Millisecond)
			<-ctx.Done()
			return nil, ctx.Err()
		})

	_, err := s.service.GetGroup(s.ctx, "ana@x.com")
	s.True(dErrors.HasCode(err, dErrors.CodeUnavailable), "timeout must surface as unavailable, got %v", err)
}

func (s *StoreFailureSuite) TestUnexpectedStoreErrorIsInternal() {
	s.store.EXPECT().List(gomock.Any(), models.ListFilter{LeadersOnly: true}).
		Return(nil, errors.New("relation \"guests\" does not exist"))

	_, err := s.service.ListLeaders(s.ctx)
	s.True(dErrors.HasCode(err, dErrors.CodeInternal))
}

func (s *StoreFailureSuite) TestCreateRaceIsConflict() {
	s.store.EXPECT().FindByName(gomock.Any(), "Ana", "Lopez").Return(nil, sentinel.ErrNotFound)
	s.store.EXPECT().FindByEmail(gomock.Any(), "ana@x.com").Return(nil, sentinel.ErrNotFound)
	s.store.EXPECT().Create(gomock.Any(), gomock.Any()).Return(guestStore.ErrDuplicateEmail)

	_, err := s.service.Register(s.ctx, models.RegisterRequest{Name: "Ana", Lastname: "Lopez", Role: "leader", Email: "ana@x.com"})
	s.True(dErrors.HasCode(err, dErrors.CodeConflict))
}

func (s *StoreFailureSuite) TestLeaderDeletionRaceIsRejected() {
	leaderID := int64(3)
	s.store.EXPECT().FindByID(gomock.Any(), int64(7)).
		Return(&models.Guest{ID: 7, Name: "Bob", Lastname: "Lopez", CompanionOf: &leaderID}, nil)
	s.store.EXPECT().Delete(gomock.Any(), int64(7)).Return(guestStore.ErrLeaderDeletion)

	err := s.service.Delete(s.ctx, 7)
	s.True(dErrors.HasCode(err, dErrors.CodeInvariantViolation))
}

func (s *StoreFailureSuite) TestStatisticsFailsWhenEitherCountFails() {
	s.store.EXPECT().Count(gomock.Any()).Return(4, nil)
	s.store.EXPECT().CountByMenu(gomock.Any()).Return(nil, fmt.Errorf("count: %w", sentinel.ErrUnavailable))

	_, err := s.service.Statistics(s.ctx)
	s.True(dErrors.HasCode(err, dErrors.CodeUnavailable))
}

func names(guests []*models.Guest) []string {
	out := make([]string, 0, len(guests))
	for _, g := range guests {
		out = append(out, g.Name)
	}
	return out
}

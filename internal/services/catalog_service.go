package services

import (
	"context"
	"strings"
	"time"

	"signlearn-service/internal/apperr"
	"signlearn-service/internal/auth"
	"signlearn-service/internal/metrics"
	"signlearn-service/internal/models"
	"signlearn-service/internal/quiz"
	"signlearn-service/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type SignService struct {
	signs   repository.Signs
	users   *UserService
	shuffle quiz.Shuffler
	now     Clock
	logger  *zap.Logger
}

func NewSignService(store repository.Store, users *UserService, logger *zap.Logger) *SignService {
	return &SignService{
		signs:  store.Signs,
		users:  users,
		now:    time.Now,
		logger: logger,
	}
}

type SignList struct {
	Signs    []*models.Sign
	Degraded bool
}

func (s *SignService) List(ctx context.Context, filter models.SignFilter) (*SignList, error) {
	signs, err := s.signs.List(ctx, filter)
	if err != nil {
		if isUnavailable(err) {
			s.logger.Warn("sign listing fell back", zap.Error(err))
			return &SignList{Signs: []*models.Sign{}, Degraded: true}, nil
		}
		return nil, translate(err, "sign")
	}
	return &SignList{Signs: signs}, nil
}

func (s *SignService) Categories(ctx context.Context) ([]string, error) {
	categories, err := s.signs.Categories(ctx)
	return categories, translate(err, "category")
}

func (s *SignService) Get(ctx context.Context, id uuid.UUID) (*models.Sign, error) {
	sign, err := s.signs.Get(ctx, id)
	return sign, translate(err, "sign")
}

func (s *SignService) RandomQuiz(ctx context.Context, filter models.SignFilter) (*quiz.Question, error) {
	sign, err := s.signs.Random(ctx, filter)
	if err != nil {
		return nil, translate(err, "sign")
	}
	q := quiz.NewQuestion(sign, s.shuffle)
	return &q, nil
}

// SequentialQuiz returns every sign of category as a question, in lesson order.
func (s *SignService) SequentialQuiz(ctx context.Context, category string) ([]quiz.Question, error) {
	category = strings.TrimSpace(category)
	if category == "" {
		return nil, apperr.InvalidInput("category is required")
	}
	signs, err := s.signs.List(ctx, models.SignFilter{Category: category})
	if err != nil {
		return nil, translate(err, "sign")
	}
	if len(signs) == 0 {
		return nil, apperr.NotFound("no signs found for category")
	}
	questions := make([]quiz.Question, 0, len(signs))
	for _, sign := range signs {
		questions = append(questions, quiz.NewQuestion(sign, s.shuffle))
	}
	return questions, nil
}

type SignCheck struct {
	quiz.AnswerResult
	Persisted bool
}

// Check grades answer; a correct answer from a known actor is credited.
func (s *SignService) Check(ctx context.Context, actor *auth.Actor, id uuid.UUID, answer string) (*SignCheck, error) {
	if strings.TrimSpace(answer) == "" {
		return nil, apperr.InvalidInput("answer is required")
	}
	sign, err := s.signs.Get(ctx, id)
	if err != nil {
		return nil, translate(err, "sign")
	}

	res := quiz.CheckSign(sign, answer)
	metrics.QuizAnswer("sign", res.IsCorrect)
	out := &SignCheck{AnswerResult: res}
	if res.IsCorrect && actor != nil {
		out.Persisted = s.users.Credit(ctx, actor, res.CoinsAwarded, sign.ID.String()).Persisted
	}
	return out, nil
}

func (s *SignService) Create(ctx context.Context, in models.SignInput) (*models.Sign, error) {
	if err := in.Validate(); err != nil {
		return nil, translate(err, "sign")
	}
	now := s.now()
	sign := &models.Sign{ID: uuid.New(), CreatedAt: now, UpdatedAt: now}
	in.Apply(sign)
	if err := s.signs.Create(ctx, sign); err != nil {
		return nil, translate(err, "sign")
	}
	s.logger.Info("sign created", zap.String("sign_id", sign.ID.String()), zap.String("word", sign.Word))
	return sign, nil
}

func (s *SignService) Update(ctx context.Context, id uuid.UUID, in models.SignInput) (*models.Sign, error) {
	if err := in.Validate(); err != nil {
		return nil, translate(err, "sign")
	}
	sign, err := s.signs.Get(ctx, id)
	if err != nil {
		return nil, translate(err, "sign")
	}
	in.Apply(sign)
	sign.UpdatedAt = s.now()
	if err := s.signs.Update(ctx, sign); err != nil {
		return nil, translate(err, "sign")
	}
	return sign, nil
}

func (s *SignService) Delete(ctx context.Context, id uuid.UUID) error {
	return translate(s.signs.Delete(ctx, id), "sign")
}

type SimulationService struct {
	simulations repository.Simulations
	users       *UserService
	now         Clock
	logger      *zap.Logger
}

func NewSimulationService(store repository.Store, users *UserService, logger *zap.Logger) *SimulationService {
	return &SimulationService{
		simulations: store.Simulations,
		users:       users,
		now:         time.Now,
		logger:      logger,
	}
}

func (s *SimulationService) List(ctx context.Context) ([]*models.SimulationChallenge, error) {
	challenges, err := s.simulations.ListActive(ctx)
	return challenges, translate(err, "simulation")
}

func (s *SimulationService) Get(ctx context.Context, id uuid.UUID) (*models.SimulationChallenge, error) {
	c, err := s.simulations.Get(ctx, id)
	return c, translate(err, "simulation")
}

func (s *SimulationService) Create(ctx context.Context, in models.SimulationInput) (*models.SimulationChallenge, error) {
	if err := in.Validate(); err != nil {
		return nil, translate(err, "simulation")
	}
	c := &models.SimulationChallenge{ID: uuid.New(), CreatedAt: s.now()}
	in.Apply(c)
	if err := s.simulations.Create(ctx, c); err != nil {
		return nil, translate(err, "simulation")
	}
	s.logger.Info("simulation created", zap.String("simulation_id", c.ID.String()), zap.String("title", c.Title))
	return c, nil
}

type SceneCheck struct {
	quiz.SceneResult
	Persisted bool
}

func (s *SimulationService) Check(ctx context.Context, actor *auth.Actor, id uuid.UUID, sceneNumber int, answer string) (*SceneCheck, error) {
	c, err := s.simulations.Get(ctx, id)
	if err != nil {
		return nil, translate(err, "simulation")
	}
	res, ok := quiz.CheckScene(c, sceneNumber, answer)
	if !ok {
		return nil, apperr.NotFound("scene not found")
	}
	metrics.QuizAnswer("scene", res.IsCorrect)
	out := &SceneCheck{SceneResult: res}
	if res.IsCorrect && actor != nil {
		out.Persisted = s.users.Credit(ctx, actor, res.CoinsAwarded, "").Persisted
	}
	return out, nil
}

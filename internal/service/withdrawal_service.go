package service

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/waniqbal01/freetask-app-3-sub000/internal/models"
	"github.com/waniqbal01/freetask-app-3-sub000/internal/pkg/apperror"
)

// WithdrawalRepository описывает взаимодействие с хранилищем заявок на вывод.
type WithdrawalRepository interface {
	Create(ctx context.Context, freelancerID uuid.UUID, amount float64, bank models.BankDetails) (*models.Withdrawal, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Withdrawal, error)
	ListByFreelancer(ctx context.Context, freelancerID uuid.UUID, limit, offset int) ([]models.Withdrawal, error)
	ListPending(ctx context.Context, limit, offset int) ([]models.Withdrawal, error)
	Approve(ctx context.Context, id, adminID uuid.UUID) (*models.Withdrawal, error)
	Reject(ctx context.Context, id, adminID uuid.UUID, reason string) (*models.Withdrawal, error)
}

// BalanceReader читает баланс пользователя.
type BalanceReader interface {
	GetBalance(ctx context.Context, userID uuid.UUID) (float64, error)
}

// WithdrawalService — вывод заработанных средств фрилансером.
// Средства резервируются в момент создания заявки: баланс списывается
// в той же транзакции, что и вставка, поэтому две конкурирующие заявки
// не могут вывести одни и те же деньги. Отклонение возвращает резерв.
type WithdrawalService struct {
	repo          WithdrawalRepository
	balances      BalanceReader
	notifications *NotificationService
}

// NewWithdrawalService создаёт сервис вывода средств.
func NewWithdrawalService(repo WithdrawalRepository, balances BalanceReader, notifications *NotificationService) *WithdrawalService {
	return &WithdrawalService{repo: repo, balances: balances, notifications: notifications}
}

// CreateWithdrawal создаёт заявку на вывод. Только фрилансер; сумма
// положительна и не превышает баланс; код банка из допустимого набора.
func (s *WithdrawalService) CreateWithdrawal(ctx context.Context, actor Actor, amount float64, bank models.BankDetails) (*models.Withdrawal, error) {
	if err := requireRole(actor, models.RoleFreelancer); err != nil {
		return nil, err
	}
	if amount <= 0 {
		return nil, apperror.New(apperror.ErrCodeValidation, "сумма вывода должна быть положительной")
	}

	bank.BankCode = strings.ToUpper(strings.TrimSpace(bank.BankCode))
	bank.AccountNumber = strings.TrimSpace(bank.AccountNumber)
	if _, ok := models.AcceptedBankCodes[bank.BankCode]; !ok {
		return nil, apperror.New(apperror.ErrCodeValidation, "код банка не поддерживается")
	}
	if bank.AccountNumber == "" {
		return nil, apperror.New(apperror.ErrCodeValidation, "номер счёта обязателен")
	}

	return s.repo.Create(ctx, actor.ID, amount, bank)
}

// GetWithdrawal возвращает заявку: её владельцу или администратору.
func (s *WithdrawalService) GetWithdrawal(ctx context.Context, actor Actor, id uuid.UUID) (*models.Withdrawal, error) {
	w, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if actor.Role != models.RoleAdmin && w.FreelancerID != actor.ID {
		return nil, apperror.ErrForbidden
	}
	return w, nil
}

// ListMyWithdrawals возвращает заявки инициатора.
func (s *WithdrawalService) ListMyWithdrawals(ctx context.Context, actor Actor, limit, offset int) ([]models.Withdrawal, error) {
	limit, offset = clampPage(limit, offset)
	return s.repo.ListByFreelancer(ctx, actor.ID, limit, offset)
}

// ListPending возвращает необработанные заявки (только администратор).
func (s *WithdrawalService) ListPending(ctx context.Context, actor Actor, limit, offset int) ([]models.Withdrawal, error) {
	if err := requireRole(actor, models.RoleAdmin); err != nil {
		return nil, err
	}
	limit, offset = clampPage(limit, offset)
	return s.repo.ListPending(ctx, limit, offset)
}

// ApproveWithdrawal одобряет PENDING заявку. Средства уже зарезервированы
// при создании, баланс не трогается. Решение журналируется в транзакции
// репозитория.
func (s *WithdrawalService) ApproveWithdrawal(ctx context.Context, actor Actor, id uuid.UUID) (*models.Withdrawal, error) {
	if err := requireRole(actor, models.RoleAdmin); err != nil {
		return nil, err
	}
	w, err := s.repo.Approve(ctx, id, actor.ID)
	if err != nil {
		return nil, err
	}
	s.notifications.notify(ctx, w.FreelancerID, "withdrawal.approved", w)
	return w, nil
}

// RejectWithdrawal отклоняет PENDING заявку с причиной и возвращает
// зарезервированную сумму на баланс.
func (s *WithdrawalService) RejectWithdrawal(ctx context.Context, actor Actor, id uuid.UUID, reason string) (*models.Withdrawal, error) {
	if err := requireRole(actor, models.RoleAdmin); err != nil {
		return nil, err
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, apperror.New(apperror.ErrCodeValidation, "причина отклонения обязательна")
	}
	w, err := s.repo.Reject(ctx, id, actor.ID, reason)
	if err != nil {
		return nil, err
	}
	s.notifications.notify(ctx, w.FreelancerID, "withdrawal.rejected", w)
	return w, nil
}

// GetBalance возвращает текущий баланс инициатора.
func (s *WithdrawalService) GetBalance(ctx context.Context, actor Actor) (float64, error) {
	return s.balances.GetBalance(ctx, actor.ID)
}

func clampPage(limit, offset int) (int, int) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

package clients

import (
	"context"
	"errors"
	"fmt"

	"github.com/recoleo/recoleo/internal/shared"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Create(ctx context.Context, req CreateClientRequest, createdBy int64) (*Client, error) {
	code := req.Code
	if code == "" {
		generated, err := s.repo.GenerateCode(ctx)
		if err != nil {
			return nil, fmt.Errorf("generate client code: %w", err)
		}
		code = generated
	}

	existing, err := s.repo.GetByCode(ctx, code)
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		return nil, fmt.Errorf("check existing client: %w", err)
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: client code %s", shared.ErrAlreadyExists, code)
	}

	client := Client{
		Code:            code,
		Name:            req.Name,
		TradeName:       req.TradeName,
		TaxID:           req.TaxID,
		Email:           req.Email,
		Phone:           req.Phone,
		ResponsibleName: req.ResponsibleName,
		AddressLine1:    req.AddressLine1,
		AddressLine2:    req.AddressLine2,
		City:            req.City,
		State:           req.State,
		PostalCode:      req.PostalCode,
		CollectionEvery: req.CollectionEvery,
		EstimatedLiters: req.EstimatedLiters,
		IsActive:        true,
		Notes:           req.Notes,
		CreatedBy:       createdBy,
	}

	id, err := s.repo.Create(ctx, client)
	if err != nil {
		return nil, fmt.Errorf("create client: %w", err)
	}
	client.ID = id
	return &client, nil
}

func (s *Service) Update(ctx context.Context, id int64, req UpdateClientRequest) (*Client, error) {
	if _, err := s.repo.Get(ctx, id); err != nil {
		return nil, fmt.Errorf("get client: %w", err)
	}

	updates := make(map[string]interface{})
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.TradeName != nil {
		updates["trade_name"] = *req.TradeName
	}
	if req.TaxID != nil {
		updates["tax_id"] = *req.TaxID
	}
	if req.Email != nil {
		updates["email"] = *req.Email
	}
	if req.Phone != nil {
		updates["phone"] = *req.Phone
	}
	if req.ResponsibleName != nil {
		updates["responsible_name"] = *req.ResponsibleName
	}
	if req.AddressLine1 != nil {
		updates["address_line1"] = *req.AddressLine1
	}
	if req.AddressLine2 != nil {
		updates["address_line2"] = *req.AddressLine2
	}
	if req.City != nil {
		updates["city"] = *req.City
	}
	if req.State != nil {
		updates["state"] = *req.State
	}
	if req.PostalCode != nil {
		updates["postal_code"] = *req.PostalCode
	}
	if req.CollectionEvery != nil {
		updates["collection_every_days"] = *req.CollectionEvery
	}
	if req.EstimatedLiters != nil {
		updates["estimated_liters"] = *req.EstimatedLiters
	}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}
	if req.Notes != nil {
		updates["notes"] = *req.Notes
	}
	if len(updates) == 0 {
		return s.repo.Get(ctx, id)
	}

	if err := s.repo.Update(ctx, id, updates); err != nil {
		return nil, fmt.Errorf("update client: %w", err)
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) Get(ctx context.Context, id int64) (*Client, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, req ListClientsRequest) ([]Client, int, error) {
	return s.repo.List(ctx, req)
}

package variables

import (
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/lo"

	"github.com/swisspipe/swisspipe/metrics"
	"github.com/swisspipe/swisspipe/model"
	"github.com/swisspipe/swisspipe/pkg/logger"
	"github.com/swisspipe/swisspipe/storage"
)

// Service owns variable CRUD for workflow scopes. Secret values are sealed
// before they touch storage and unsealed on the way out; callers only ever
// see plaintext.
type Service struct {
	db         storage.Storage
	encryption *EncryptionService

	// macroVars are static values from the config file. They participate in
	// template resolution with the lowest precedence and are not stored.
	macroVars map[string]string

	logger logger.Logger
}

type CreateVariableRequest struct {
	Name        string             `json:"name"`
	Type        model.VariableType `json:"type"`
	Value       string             `json:"value"`
	Description string             `json:"description,omitempty"`
}

type UpdateVariableRequest struct {
	Value       string  `json:"value"`
	Description *string `json:"description,omitempty"`
}

func NewService(db storage.Storage, encryption *EncryptionService, macroVars map[string]string, l logger.Logger) *Service {
	if macroVars == nil {
		macroVars = map[string]string{}
	}

	return &Service{
		db:         db,
		encryption: encryption,
		macroVars:  macroVars,
		logger:     logger.EnsureLogger(l),
	}
}

// Create stores a new variable under scope. The name must be unique within
// the scope; a concurrent create of the same name loses with DuplicateName.
func (s *Service) Create(scope string, req CreateVariableRequest) (*model.Variable, error) {
	if req.Type == "" {
		req.Type = model.VariableTypeText
	}

	now := time.Now().UnixMicro()
	variable := &model.Variable{
		ID:          ulid.Make().String(),
		Name:        req.Name,
		Type:        req.Type,
		Value:       req.Value,
		Description: req.Description,
		WorkflowID:  scope,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := model.Validate(variable); err != nil {
		return nil, NewValidationError(fmt.Sprintf("invalid variable: %s", err))
	}

	stored := *variable
	if variable.IsSecret() {
		sealed, err := s.encryption.Seal(variable.Value, scope)
		if err != nil {
			return nil, err
		}
		stored.Value = sealed
	}

	data, err := json.Marshal(&stored)
	if err != nil {
		return nil, err
	}

	err = s.db.SetIfNotExists(VariableStorageKey(scope, variable.Name), data)
	if errors.Is(err, storage.ErrKeyExists) {
		return nil, NewDuplicateNameError(scope, variable.Name)
	}
	if err != nil {
		return nil, err
	}

	metrics.IncVariableWrite("create")
	s.logger.Info("created variable", "scope", scope, "name", variable.Name, "type", variable.Type)
	return variable, nil
}

// Get returns the variable with its plaintext value.
func (s *Service) Get(scope, name string) (*model.Variable, error) {
	data, err := s.db.GetKey(VariableStorageKey(scope, name))
	if errors.Is(err, storage.ErrKeyNotFound) {
		return nil, NewNotFoundError(scope, name)
	}
	if err != nil {
		return nil, err
	}

	return s.decode(scope, data)
}

// List returns every variable in the scope, plaintext values included,
// ordered by name (the storage key order).
func (s *Service) List(scope string) ([]*model.Variable, error) {
	items, err := s.db.GetByPrefix(VariableStoragePrefix(scope))
	if err != nil {
		return nil, err
	}

	result := make([]*model.Variable, 0, len(items))
	for _, item := range items {
		v, err := s.decode(scope, item.Value)
		if err != nil {
			return nil, err
		}
		result = append(result, v)
	}

	return result, nil
}

// Update replaces the value (and optionally the description) of an existing
// variable. The read-modify-write runs inside one storage transaction so
// concurrent updates of the same variable serialize instead of losing writes.
func (s *Service) Update(scope, name string, req UpdateVariableRequest) (*model.Variable, error) {
	var updated model.Variable

	err := s.db.UpdateKey(VariableStorageKey(scope, name), func(current []byte) ([]byte, error) {
		var stored model.Variable
		if err := json.Unmarshal(current, &stored); err != nil {
			return nil, fmt.Errorf("corrupt variable record %s/%s: %w", scope, name, err)
		}

		stored.Value = req.Value
		if req.Description != nil {
			stored.Description = *req.Description
		}
		stored.UpdatedAt = time.Now().UnixMicro()

		if err := model.Validate(&stored); err != nil {
			return nil, NewValidationError(fmt.Sprintf("invalid variable: %s", err))
		}

		updated = stored
		if stored.IsSecret() {
			sealed, err := s.encryption.Seal(req.Value, scope)
			if err != nil {
				return nil, err
			}
			stored.Value = sealed
		}

		return json.Marshal(&stored)
	})

	if errors.Is(err, storage.ErrKeyNotFound) {
		return nil, NewNotFoundError(scope, name)
	}
	if err != nil {
		return nil, err
	}

	metrics.IncVariableWrite("update")
	return &updated, nil
}

// Delete removes a single variable.
func (s *Service) Delete(scope, name string) error {
	key := VariableStorageKey(scope, name)

	exists, err := s.db.Exist(key)
	if err != nil {
		return err
	}
	if !exists {
		return NewNotFoundError(scope, name)
	}

	if err := s.db.Delete(key); err != nil {
		return err
	}

	metrics.IncVariableWrite("delete")
	return nil
}

// DeleteScope drops every variable owned by a workflow. Called when the
// workflow itself is deleted.
func (s *Service) DeleteScope(scope string) (int64, error) {
	deleted, err := s.db.DeleteByPrefix(VariableStoragePrefix(scope))
	if err != nil {
		return 0, err
	}

	if deleted > 0 {
		s.logger.Info("deleted workflow variables", "scope", scope, "count", deleted)
	}
	return deleted, nil
}

// Names returns just the variable names in a scope.
func (s *Service) Names(scope string) ([]string, error) {
	keys, err := s.db.ListKeys(string(VariableStoragePrefix(scope)))
	if err != nil {
		return nil, err
	}

	return lo.Map(keys, func(k string, _ int) string {
		return VariableNameFromKey(k)
	}), nil
}

// LoadVariables resolves the full variable environment for a scope, for
// template rendering. Precedence from lowest to highest: config macro vars,
// global-scope variables, workflow-scope variables. Secrets come back as
// plaintext; the map must not outlive the render call.
func (s *Service) LoadVariables(scope string) (map[string]string, error) {
	env := map[string]string{}
	maps.Copy(env, s.macroVars)

	scopes := []string{model.GlobalScope}
	if scope != model.GlobalScope {
		scopes = append(scopes, scope)
	}

	for _, sc := range scopes {
		vars, err := s.List(sc)
		if err != nil {
			return nil, err
		}
		for _, v := range vars {
			env[v.Name] = v.Value
		}
	}

	return env, nil
}

func (s *Service) decode(scope string, data []byte) (*model.Variable, error) {
	var v model.Variable
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("corrupt variable record in scope %s: %w", scope, err)
	}

	if v.IsSecret() {
		plaintext, err := s.encryption.Unseal(v.Value, scope)
		if err != nil {
			return nil, err
		}
		v.Value = plaintext
	}

	return &v, nil
}

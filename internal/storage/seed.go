package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/ternarybob/imunetrack/internal/common"
	"github.com/ternarybob/imunetrack/internal/interfaces"
	"github.com/ternarybob/imunetrack/internal/models"
	"gopkg.in/yaml.v3"
)

// DefaultUserEmail and DefaultUserPassword are the fixture user always present after a reset
const (
	DefaultUserEmail    = "teste@example.com"
	DefaultUserPassword = "senha123"
)

// DefaultVaccines is the built-in vaccine catalogue
func DefaultVaccines() []models.Vacina {
	return []models.Vacina{
		{ID: 1, Nome: "Hepatite B", Doses: 3},
		{ID: 2, Nome: "BCG", Doses: 1},
		{ID: 3, Nome: "Tríplice Viral (Sarampo, Caxumba, Rubéola)", Doses: 2},
		{ID: 4, Nome: "Febre Amarela", Doses: 1},
		{ID: 5, Nome: "dT (Dupla Adulto)", Doses: 1},
		{ID: 6, Nome: "Influenza (Gripe)", Doses: 1},
	}
}

// DefaultSeed returns the built-in fixtures plus the configured test user
func DefaultSeed(config *common.Config) *interfaces.Seed {
	seed := &interfaces.Seed{
		Usuarios: []interfaces.SeedUsuario{
			{ID: 1, Nome: "Usuario Teste", Email: DefaultUserEmail, Senha: DefaultUserPassword},
		},
		Vacinas: DefaultVaccines(),
	}
	if id := addTestUser(seed, config); id != 0 {
		seed.Historico = testUserHistory(id, time.Now())
	}
	return seed
}

// testUserHistory gives the test user one applied and one upcoming dose
func testUserHistory(usuarioID int, now time.Time) []models.HistoricoVacinal {
	aplicada := now.AddDate(0, -2, 0).Format(models.DateLayout)
	prevista := now.AddDate(0, 0, 30).Format(models.DateLayout)
	local := "UBS Centro"
	return []models.HistoricoVacinal{
		{
			ID:             1,
			UsuarioID:      usuarioID,
			VacinaID:       1,
			VacinaNome:     "Hepatite B",
			NumeroDose:     1,
			Status:         models.StatusAplicada,
			DataAplicacao:  &aplicada,
			LocalAplicacao: &local,
		},
		{
			ID:           2,
			UsuarioID:    usuarioID,
			VacinaID:     1,
			VacinaNome:   "Hepatite B",
			NumeroDose:   2,
			Status:       models.StatusPendente,
			DataPrevista: &prevista,
		},
	}
}

// addTestUser appends the configured test user unless its email is already seeded.
// It returns the new user's id, or 0 when nothing was added.
func addTestUser(seed *interfaces.Seed, config *common.Config) int {
	if config == nil || config.TestUser.Email == "" {
		return 0
	}
	for _, u := range seed.Usuarios {
		if strings.EqualFold(u.Email, config.TestUser.Email) {
			return 0
		}
	}

	id := 0
	for _, u := range seed.Usuarios {
		if u.ID > id {
			id = u.ID
		}
	}
	seed.Usuarios = append(seed.Usuarios, interfaces.SeedUsuario{
		ID:      id + 1,
		Nome:    config.TestUser.Name,
		Email:   config.TestUser.Email,
		Senha:   config.TestUser.Password,
		IsAdmin: true,
	})
	return id + 1
}

// LoadSeed reads fixtures from the configured seed file, falling back to the defaults
func LoadSeed(config *common.Config) (*interfaces.Seed, error) {
	if config.Mock.SeedFile == "" {
		return DefaultSeed(config), nil
	}

	seed, err := LoadSeedFile(config.Mock.SeedFile)
	if err != nil {
		return nil, err
	}
	if len(seed.Vacinas) == 0 {
		seed.Vacinas = DefaultVaccines()
	}
	addTestUser(seed, config)
	return seed, nil
}

// LoadSeedFile decodes a .toml, .yaml/.yml or .json fixture file.
// TOML and YAML documents are normalised through JSON so the model json tags apply to every format.
func LoadSeedFile(path string) (*interfaces.Seed, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file %s: %w", path, err)
	}

	var raw map[string]interface{}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		err = toml.Unmarshal(data, &raw)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &raw)
	case ".json":
		err = json.Unmarshal(data, &raw)
	default:
		return nil, fmt.Errorf("unsupported seed file format: %s", ext)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse seed file %s: %w", path, err)
	}

	normalised, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to normalise seed file %s: %w", path, err)
	}

	var seed interfaces.Seed
	if err := json.Unmarshal(normalised, &seed); err != nil {
		return nil, fmt.Errorf("failed to decode seed file %s: %w", path, err)
	}
	return &seed, nil
}

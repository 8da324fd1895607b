// Package faker generates pt-BR test users, emails and dates for the e2e suite.
package faker

import (
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DefaultPassword is the password every generated user gets
const DefaultPassword = "senha123"

const (
	ISODate = "2006-01-02"
	BRDate  = "02/01/2006"
)

// User is a generated signup
type User struct {
	Name     string
	Email    string
	Password string
}

// ValidVaccines are names the scheduling form accepts
var ValidVaccines = []string{
	"Hepatite B",
	"Tríplice Viral (Sarampo, Caxumba, Rubéola)",
	"Febre Amarela",
	"dT (Dupla Adulto)",
	"Influenza (Gripe)",
}

// InvalidEmails fail browser email validation
var InvalidEmails = []string{
	"email_sem_arroba",
	"@semdominio.com",
	"usuario@",
	"usuario @dominio.com",
	"",
}

// InvalidPasswords are shorter than the six characters signup requires
var InvalidPasswords = []string{
	"",
	"12345",
	"abc",
	"a",
	"12",
}

var firstNames = []string{
	"Ana", "Beatriz", "Bruno", "Camila", "Carlos", "Daniela", "Eduardo", "Fernanda",
	"Gabriel", "Helena", "Isabela", "João", "Juliana", "Larissa", "Lucas", "Marcos",
	"Maria", "Mateus", "Natália", "Otávio", "Paulo", "Rafael", "Sofia", "Thiago", "Vitória",
}

var lastNames = []string{
	"Almeida", "Araújo", "Barbosa", "Cardoso", "Carvalho", "Costa", "Fernandes", "Gomes",
	"Lima", "Martins", "Melo", "Oliveira", "Pereira", "Ribeiro", "Rocha", "Santos",
	"Silva", "Souza",
}

// Email returns teste_<8 lowercase alphanumerics>@example.com
func Email() string {
	id := strings.ReplaceAll(uuid.NewString(), "-", "")
	return fmt.Sprintf("teste_%s@example.com", id[:8])
}

// Name returns a random Brazilian full name
func Name() string {
	return firstNames[rand.IntN(len(firstNames))] + " " + lastNames[rand.IntN(len(lastNames))]
}

// NewUser returns a user with a random name and email and DefaultPassword
func NewUser() User {
	return User{
		Name:     Name(),
		Email:    Email(),
		Password: DefaultPassword,
	}
}

// FutureDate returns today plus days as YYYY-MM-DD
func FutureDate(days int) string {
	return futureDate(time.Now(), days, ISODate)
}

// FutureDateBR returns today plus days as DD/MM/YYYY, the format date inputs accept in pt-BR
func FutureDateBR(days int) string {
	return futureDate(time.Now(), days, BRDate)
}

func futureDate(now time.Time, days int, layout string) string {
	return now.AddDate(0, 0, days).Format(layout)
}

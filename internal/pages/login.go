package pages

import (
	"strings"
)

// Login page locators
var (
	LoginEmailInput    = ID("email")
	LoginPasswordInput = ID("password")
	LoginButton        = XPath("//button[contains(text(), 'Entrar')]")
	LoginErrorMessage  = CSS("p.text-destructive")
	LoginCadastroLink  = CSS(`a[href="/cadastro"]`)
	LoginBackToHome    = XPath("//a[contains(text(), 'Voltar')]")
)

// LoginPage is the /login screen
type LoginPage struct {
	*BasePage
}

func NewLoginPage(base *BasePage) *LoginPage {
	return &LoginPage{BasePage: base}
}

// Navigate opens /login
func (p *LoginPage) Navigate() error {
	return p.BasePage.Navigate("/login")
}

// Login fills the credentials and submits
func (p *LoginPage) Login(email, password string) error {
	if err := p.TypeText(LoginEmailInput, email); err != nil {
		return err
	}
	if err := p.TypeText(LoginPasswordInput, password); err != nil {
		return err
	}
	return p.Click(LoginButton)
}

// SubmitEmpty clicks Entrar without filling anything
func (p *LoginPage) SubmitEmpty() error {
	return p.Click(LoginButton)
}

// ErrorMessage returns the text of the inline error
func (p *LoginPage) ErrorMessage() (string, error) {
	return p.Text(LoginErrorMessage)
}

// HasErrorMessage reports whether an inline error is currently shown
func (p *LoginPage) HasErrorMessage() bool {
	n, err := p.Count(LoginErrorMessage)
	return err == nil && n > 0
}

// ClickCadastroLink follows the signup link
func (p *LoginPage) ClickCadastroLink() error {
	return p.clickLink(LoginCadastroLink)
}

// BackToHome follows the Voltar link
func (p *LoginPage) BackToHome() error {
	return p.Click(LoginBackToHome)
}

// IsOnLoginPage reports whether the tab is at /login
func (p *LoginPage) IsOnLoginPage() bool {
	url, err := p.CurrentURL()
	return err == nil && strings.Contains(url, "/login")
}

// EmailValidity runs constraint validation on the email field
func (p *LoginPage) EmailValidity() (bool, error) {
	valid, _, err := p.CheckValidity(LoginEmailInput)
	return valid, err
}

package pages

import "time"

// Signup page locators
var (
	CadastroNameInput            = ID("name")
	CadastroEmailInput           = ID("email")
	CadastroPasswordInput        = ID("password")
	CadastroConfirmPasswordInput = ID("confirmPassword")
	CadastroSignupButton         = XPath("//button[contains(text(), 'Criar conta')]")
	CadastroSuccessMessage       = XPath("//*[contains(text(), 'Conta criada com sucesso')]")
	CadastroErrorMessage         = XPath("//*[contains(@class, 'destructive')]")
	CadastroLoginLink            = CSS(`a[href="/login"]`)
)

// CadastroPage is the /cadastro signup screen
type CadastroPage struct {
	*BasePage
}

func NewCadastroPage(base *BasePage) *CadastroPage {
	return &CadastroPage{BasePage: base}
}

// Navigate opens /cadastro
func (p *CadastroPage) Navigate() error {
	return p.BasePage.Navigate("/cadastro")
}

// Fill types every field without submitting
func (p *CadastroPage) Fill(name, email, password, confirmPassword string) error {
	fields := []struct {
		loc   Locator
		value string
	}{
		{CadastroNameInput, name},
		{CadastroEmailInput, email},
		{CadastroPasswordInput, password},
		{CadastroConfirmPasswordInput, confirmPassword},
	}
	for _, f := range fields {
		if err := p.TypeText(f.loc, f.value); err != nil {
			return err
		}
	}
	return nil
}

// Signup fills the form and submits it
func (p *CadastroPage) Signup(name, email, password, confirmPassword string) error {
	if err := p.Fill(name, email, password, confirmPassword); err != nil {
		return err
	}
	return p.Click(CadastroSignupButton)
}

// HasSuccessMessage reports whether the account-created banner appears
func (p *CadastroPage) HasSuccessMessage() bool {
	return p.IsVisible(CadastroSuccessMessage, 5*time.Second)
}

func (p *CadastroPage) ErrorMessage() (string, error) {
	return p.Text(CadastroErrorMessage)
}

// ClickLoginLink follows the link back to /login
func (p *CadastroPage) ClickLoginLink() error {
	return p.clickLink(CadastroLoginLink)
}

// EmailValidity runs constraint validation on the email field
func (p *CadastroPage) EmailValidity() (bool, error) {
	valid, _, err := p.CheckValidity(CadastroEmailInput)
	return valid, err
}

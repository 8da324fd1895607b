package pages

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Vaccine scheduling form locators
var (
	ScheduleTitle         = XPath("//h2[contains(., 'Agendar Vacina')]")
	ScheduleVaccineSelect = Name("vacina_id")
	ScheduleDoseSelect    = Name("numero_dose")
	ScheduleDateInput     = Name("data_prevista")
	ScheduleLocationInput = Name("local_aplicacao")
	ScheduleNotesTextarea = Name("observacoes")
	ScheduleSubmitButton  = XPath("//button[contains(., 'Confirmar Agendamento')]")
	ScheduleSuccessMsg    = XPath("//*[contains(text(), 'Vacina agendada com sucesso!')]")
	ScheduleErrorMsg      = XPath("//*[contains(@class, 'text-destructive')]")
)

// VaccineSchedulePage is the scheduling form inside the dashboard
type VaccineSchedulePage struct {
	*BasePage
}

func NewVaccineSchedulePage(base *BasePage) *VaccineSchedulePage {
	return &VaccineSchedulePage{BasePage: base}
}

// IsOnSchedulePage reports whether the form heading is visible within 5 seconds
func (p *VaccineSchedulePage) IsOnSchedulePage() bool {
	return p.IsVisible(ScheduleTitle, 5*time.Second)
}

// SelectVaccine picks the first option whose label contains text, ignoring case
func (p *VaccineSchedulePage) SelectVaccine(text string) error {
	options, err := p.SelectOptions(ScheduleVaccineSelect)
	if err != nil {
		return err
	}

	needle := strings.ToLower(text)
	labels := make([]string, 0, len(options))
	for _, o := range options {
		if o.Value != "" && strings.Contains(strings.ToLower(o.Text), needle) {
			return p.SelectByValue(ScheduleVaccineSelect, o.Value)
		}
		labels = append(labels, o.Text)
	}
	return fmt.Errorf("vaccine containing %q not found, available options: %q", text, labels)
}

func (p *VaccineSchedulePage) SelectDose(dose int) error {
	return p.SelectByValue(ScheduleDoseSelect, strconv.Itoa(dose))
}

func (p *VaccineSchedulePage) SetDate(date string) error {
	return p.TypeText(ScheduleDateInput, date)
}

func (p *VaccineSchedulePage) SetLocation(location string) error {
	return p.TypeText(ScheduleLocationInput, location)
}

func (p *VaccineSchedulePage) SetNotes(notes string) error {
	return p.TypeText(ScheduleNotesTextarea, notes)
}

func (p *VaccineSchedulePage) Submit() error {
	return p.Click(ScheduleSubmitButton)
}

// ScheduleVaccine fills and submits the form; empty notes are left blank
func (p *VaccineSchedulePage) ScheduleVaccine(vaccine, date, location, notes string) error {
	if err := p.SelectVaccine(vaccine); err != nil {
		return err
	}
	if err := p.SetDate(date); err != nil {
		return err
	}
	if err := p.SetLocation(location); err != nil {
		return err
	}
	if notes != "" {
		if err := p.SetNotes(notes); err != nil {
			return err
		}
	}
	return p.Submit()
}

// HasSuccessMessage waits up to 30 seconds for the confirmation
func (p *VaccineSchedulePage) HasSuccessMessage() bool {
	return p.IsVisible(ScheduleSuccessMsg, 30*time.Second)
}

func (p *VaccineSchedulePage) HasErrorMessage() bool {
	return p.IsVisible(ScheduleErrorMsg, 5*time.Second)
}

// AvailableVaccines returns the non-empty option labels of the vaccine select
func (p *VaccineSchedulePage) AvailableVaccines() ([]string, error) {
	options, err := p.SelectOptions(ScheduleVaccineSelect)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, o := range options {
		if o.Text != "" {
			names = append(names, o.Text)
		}
	}
	return names, nil
}

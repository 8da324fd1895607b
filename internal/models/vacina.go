package models

// Vacina is a vaccine of the catalogue and the number of doses of its schedule
type Vacina struct {
	ID    int    `json:"id" badgerhold:"key"`
	Nome  string `json:"nome"`
	Doses int    `json:"doses"`
}

// VacinaCreate is the payload of POST /vacinas/
type VacinaCreate struct {
	Nome  string `json:"nome" validate:"required"`
	Doses int    `json:"doses" validate:"required,gte=1"`
}

// Validate validates the create payload
func (v *VacinaCreate) Validate() error {
	return validate.Struct(v)
}

// VacinaUpdate is a partial update (PUT /vacinas/{id})
type VacinaUpdate struct {
	Nome  *string `json:"nome,omitempty" validate:"omitempty,min=1"`
	Doses *int    `json:"doses,omitempty" validate:"omitempty,gte=1"`
}

// Validate validates the update payload
func (v *VacinaUpdate) Validate() error {
	return validate.Struct(v)
}

// Apply copies the set fields onto the vaccine
func (v *VacinaUpdate) Apply(vacina *Vacina) {
	if v.Nome != nil {
		vacina.Nome = *v.Nome
	}
	if v.Doses != nil {
		vacina.Doses = *v.Doses
	}
}

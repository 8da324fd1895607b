package models

import (
	"github.com/go-playground/validator/v10"
)

// validate is shared by all payload types; validator caches struct metadata
var validate = validator.New()

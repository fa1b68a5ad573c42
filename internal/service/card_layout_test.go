package service

import (
	"image"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unexca/student-docs-api/internal/models"
)

func TestBuildCardContentFieldsAndPayload(t *testing.T) {
	student := &models.Student{Cedula: "V12345678", Nombre: "Ana", Apellido: "Gómez", Carrera: "Informática"}
	content := buildCardContent(student, "estudiante", time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC))

	byName := map[string]cardText{}
	order := make([]string, 0, len(content.Texts))
	for _, text := range content.Texts {
		byName[text.Name] = text
		order = append(order, text.Name)
	}
	assert.Equal(t, []string{"nombre", "cedula", "carrera", "rol", "vence"}, order)

	require.Contains(t, byName, "nombre")
	assert.Equal(t, "ANA GÓMEZ", byName["nombre"].Text)
	assert.True(t, byName["nombre"].Bold)
	assert.Equal(t, image.Pt(200, 600), byName["nombre"].At)
	assert.Equal(t, "C.I: V12345678", byName["cedula"].Text)
	assert.Equal(t, "INFORMÁTICA", byName["carrera"].Text)
	assert.Equal(t, "ESTUDIANTE", byName["rol"].Text)
	assert.Equal(t, cardWhite, byName["rol"].Color)
	assert.Equal(t, "Vence: 15/03/2025", byName["vence"].Text)

	assert.Equal(t,
		"NOMBRE: Ana\nAPELLIDO: Gómez\nCEDULA: V12345678\nCARRERA: Informática\nROL: estudiante\nVENCE: 15/03/2025",
		content.QRPayload)
}

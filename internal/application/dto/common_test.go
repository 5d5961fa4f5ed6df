package dto_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jhoicas/Farmacia-api/internal/application/dto"
)

func TestPageRequest_Clamp(t *testing.T) {
	cases := []struct {
		name string
		in   dto.PageRequest
		want dto.PageRequest
	}{
		{"vacío usa el límite por defecto", dto.PageRequest{}, dto.PageRequest{Limit: dto.DefaultPageLimit}},
		{"negativos", dto.PageRequest{Limit: -1, Offset: -5}, dto.PageRequest{Limit: dto.DefaultPageLimit}},
		{"excede el máximo", dto.PageRequest{Limit: 1000, Offset: 40}, dto.PageRequest{Limit: dto.MaxPageLimit, Offset: 40}},
		{"dentro de rango", dto.PageRequest{Limit: 5, Offset: 10}, dto.PageRequest{Limit: 5, Offset: 10}},
		{"justo en el máximo", dto.PageRequest{Limit: dto.MaxPageLimit}, dto.PageRequest{Limit: dto.MaxPageLimit}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.in.Clamp())
		})
	}
}

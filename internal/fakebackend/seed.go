package fakebackend

import (
	"fmt"
	"time"
)

// Demo account created by SeedDemo.
const (
	DemoEmail    = "admin@ativo.local"
	DemoPassword = "ativo123"
)

// SeedDemo fills the server with a demo account and a small fleet.
func SeedDemo(s *Server) error {
	if _, err := s.AddUser(DemoEmail, DemoPassword, true); err != nil {
		return fmt.Errorf("seeding demo user: %w", err)
	}

	s.Seed("oficinas",
		map[string]any{"id": int64(1), "nome": "Oficina Centro", "cnpj": "12345678000190", "endereco": "Rua das Flores, 120", "cidade": "Sao Paulo", "estado": "SP", "telefone": "(11) 3333-1000", "email": "centro@oficinas.local", "responsavel": "Carlos Lima", "status": "ativa"},
		map[string]any{"id": int64(2), "nome": "Auto Reparos Sul", "cnpj": "23456789000101", "endereco": "Av. Brasil, 900", "cidade": "Sao Paulo", "estado": "SP", "telefone": "(11) 3333-2000", "email": nil, "responsavel": "Marina Alves", "status": "ativa"},
		map[string]any{"id": int64(3), "nome": "Funilaria Norte", "cnpj": "34567890000112", "endereco": "Rua Projetada, 45", "cidade": "Guarulhos", "estado": "SP", "telefone": "(11) 3333-3000", "email": nil, "responsavel": "Joao Pedro", "status": "analise"},
	)

	day := func(n int) string {
		return time.Now().AddDate(0, 0, -n).UTC().Format("2006-01-02")
	}
	type v struct {
		plate, model, doc, customer string
		workshop                    int64
		status, inspection          string
		entered                     int
	}
	fleet := []v{
		{"ABC1D23", "Fiat Argo 1.0", "12345678901", "Ana Souza", 1, "aguardando", "pending", 2},
		{"BRA2E19", "VW Gol 1.6", "98765432100", "Bruno Costa", 1, "em_andamento", "approved", 9},
		{"QWE4R56", "Chevrolet Onix", "11222333000181", "Transportes Rapido Ltda", 2, "em_andamento", "approved", 17},
		{"RTY7U89", "Toyota Corolla", "12345678901", "Ana Souza", 2, "finalizado", "approved", 30},
		{"IOP0A12", "Honda Civic", "45678912300", "Carla Dias", 3, "atrasado", "approved", 41},
		{"SDF3G45", "Renault Kwid", "32165498700", "Diego Melo", 3, "aguardando", "pending", 1},
		{"HJK6L78", "Hyundai HB20", "74185296300", "Elisa Rocha", 1, "em_andamento", "approved", 12},
		{"ZXC9V01", "Jeep Renegade", "11222333000181", "Transportes Rapido Ltda", 2, "aguardando", "approved", 4},
		{"MNB2V34", "Ford Ka", "85274196300", "Fabio Nunes", 3, "finalizado", "approved", 55},
		{"POI5U67", "Nissan Kicks", "96385274100", "Gabriela Pires", 1, "em_andamento", "rejected", 7},
		{"LKJ8H90", "Peugeot 208", "15975345600", "Heitor Ramos", 2, "aguardando", "pending", 3},
	}
	for i, f := range fleet {
		row := map[string]any{
			"id":                int64(i + 1),
			"placa":             f.plate,
			"modelo":            f.model,
			"chassi":            fmt.Sprintf("9BWZZZ377VT%06d", 4000+i),
			"renavam":           fmt.Sprintf("%011d", 10000000000+int64(i)*7919),
			"cpf_cnpj_cliente":  f.doc,
			"nome_cliente":      f.customer,
			"telefone_cliente":  fmt.Sprintf("(11) 9%04d-%04d", 8000+i, 1000+i),
			"valor_fipe":        42000.0 + float64(i)*3500,
			"oficina_id":        f.workshop,
			"is_terceiro":       i%4 == 0,
			"status":            f.status,
			"inspection_status": f.inspection,
			"data_entrada":      day(f.entered),
			"data_saida":        nil,
			"created_at":        day(f.entered) + "T09:00:00Z",
			"updated_at":        day(f.entered/2) + "T09:00:00Z",
		}
		if f.status == "finalizado" {
			row["data_saida"] = day(f.entered - 20)
		}
		s.Seed("veiculos", row)
	}

	s.Seed("atualizacoes",
		map[string]any{"veiculo_id": int64(2), "descricao": "<p>Vistoria de entrada concluida. <b>Para-choque</b> traseiro a substituir.</p>", "status": "em_andamento", "data_prevista": day(-5), "created_at": day(8) + "T10:00:00Z"},
		map[string]any{"veiculo_id": int64(2), "descricao": "<p>Peca recebida, pintura agendada.</p>", "status": "em_andamento", "data_prevista": day(-3), "created_at": day(3) + "T15:30:00Z"},
		map[string]any{"veiculo_id": int64(4), "descricao": "<p>Servico finalizado. Veiculo liberado para retirada.</p>", "status": "finalizado", "data_prevista": nil, "created_at": day(10) + "T11:00:00Z"},
		map[string]any{"veiculo_id": int64(5), "descricao": "<p>Aguardando <i>peca importada</i>; prazo estendido.</p>", "status": "atrasado", "data_prevista": day(2), "created_at": day(20) + "T08:45:00Z"},
	)

	s.Seed("feedbacks",
		map[string]any{"veiculo_id": int64(4), "avaliacao": 5, "comentario": "Atendimento excelente, carro entregue antes do prazo.", "autoriza_publicacao": true, "status": "pendente", "data": day(9)},
		map[string]any{"veiculo_id": int64(9), "avaliacao": 3, "comentario": "Servico bom, mas a comunicacao poderia melhorar.", "autoriza_publicacao": false, "status": "pendente", "data": day(30)},
		map[string]any{"veiculo_id": int64(2), "avaliacao": 4, "comentario": "Equipe atenciosa.", "autoriza_publicacao": true, "status": "aprovado", "data": day(40)},
	)
	return nil
}

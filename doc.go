// Package fastcrudtoolkit gera endpoints CRUD completos a partir de modelos
// declarados em YAML.
//
// Visão Geral:
// Cada modelo (app.nome + campos tipados) recebe um mapper de representação,
// um matcher de filtros e cinco handlers HTTP (list, create, retrieve, update,
// destroy) montados pelo sintetizador do pacote crud.
//
// Sub-Pacotes Principais:
//
// 1. schema: modelos, campos, coerção de tipos e o registro concorrente.
// 2. mapper / matcher: validação de payloads e filtros de listagem.
// 3. crud: o sintetizador, os handlers e a tabela de rotas.
// 4. store: contrato de persistência com drivers memstore, pgstore (sqlx +
//    lib/pq), dynstore (DynamoDB via dyndb) e redisstore (go-redis).
// 5. pkg/config, pkg/engine, pkg/transport: carregamento da configuração
//    (arquivo, S3 ou DynamoDB), montagem do serviço, servidor HTTP, adaptador
//    Lambda e hot reload via SQS.
// 6. envloader: variáveis de ambiente para structs.
//
// Exemplo de Início Rápido:
//
//	reg, _ := schema.NewRegistry(models...)
//	syn := crud.New(crud.Options{Registry: reg, Store: memstore.New(), Prefix: "/api"})
//	routes, _ := syn.RoutesFor(reg.Refs()...)
//	router := transport.NewRouter(routes, transport.RouterOptions{Timeout: 5 * time.Second})
//	http.ListenAndServe(":8080", router)
package fastcrudtoolkit

// Package dyndb fornece uma abstração genérica e fortemente tipada sobre o
// AWS DynamoDB Go SDK (v2).
//
// O pacote oferece a interface `Store[T]`, usada pelo backend `dynstore` para
// persistir registros de qualquer modelo. `T` pode ser uma struct com tags
// `dynamodbav` ou um `map[string]any`.
//
// Funcionalidades Principais:
//   - Escrita condicional: `Create` falha com ErrAlreadyExists e `Replace`
//     falha com ErrNotFound quando a condição de chave não é satisfeita.
//   - `Delete` devolve ErrNotFound quando o item não existia.
//   - `Increment` implementa contadores atômicos (sequências de chave).
//   - Builder fluente: `Scan().FilterEqual(...).ExecAll(...)` percorre todas
//     as páginas; `Exec` devolve uma página e um token Base64.
//   - `MockDynamoClient` (testify) para testes unitários.
//
// Exemplo:
//
//	type User struct {
//		ID    string `dynamodbav:"id"`
//		Email string `dynamodbav:"email"`
//	}
//
//	users := dyndb.New(client, dyndb.TableConfig[User]{TableName: "Users", HashKey: "id"})
//	if err := users.Create(ctx, User{ID: "u1", Email: "a@b.com"}); errors.Is(err, dyndb.ErrAlreadyExists) {
//		// ...
//	}
//	active, err := users.Scan().FilterEqual("status", "ACTIVE").ExecAll(ctx)
//
// Sem TableName, a configuração da tabela é lida das variáveis
// DYNAMODB_TABLE_NAME, DYNAMODB_HASH_KEY e DYNAMODB_SORT_KEY.
package dyndb

package proto

import (
	"github.com/invopop/jsonschema"
)

// Schemas 协议消息的 JSON Schema，供前端或第三方客户端校验
type Schemas struct {
	Client *jsonschema.Schema `json:"client"`
	Server *jsonschema.Schema `json:"server"`
}

// Schema 反射生成客户端/服务端消息结构
func Schema() Schemas {
	reflector := jsonschema.Reflector{DoNotReference: true}

	client := reflector.Reflect(new(ClientMessage))
	client.Title = "QuickArena client message"
	client.Description = "init / update_player frames sent by a client (\"update\" accepted as alias)"

	server := reflector.Reflect(new(ServerMessage))
	server.Title = "QuickArena server message"
	server.Description = "init / init_player / update_player / remove_player / welcome frames sent by the relay"

	return Schemas{Client: client, Server: server}
}

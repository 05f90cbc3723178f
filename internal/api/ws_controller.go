package api

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"kdsboard/server/internal/services"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// Разрешаем подключения с любого origin (экраны в локальной сети)
		return true
	},
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// ServeWS обрабатывает WebSocket подключения кухонных экранов
// Сразу после подключения экран получает текущий снапшот доски,
// дальше — рассылки после каждого примененного опроса
func ServeWS(board *services.BoardService) gin.HandlerFunc {
	return func(c *gin.Context) {
		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			log.Printf("⚠️ Ошибка обновления WebSocket соединения: %v", err)
			return
		}

		DisplayHub.AddClient(conn)
		log.Printf("📺 Экран KDS подключен. Всего подключений: %d", DisplayHub.GetClientsCount())

		// Текущее состояние доски — не ждем следующего опроса
		if snapshot, err := json.Marshal(board.Snapshot()); err == nil {
			if err := conn.WriteMessage(websocket.TextMessage, snapshot); err != nil {
				log.Printf("⚠️ Не удалось отправить начальный снапшот: %v", err)
			}
		}

		// Обрабатываем отключение клиента
		defer func() {
			DisplayHub.RemoveClient(conn)
			log.Printf("📺 Экран KDS отключен. Осталось подключений: %d", DisplayHub.GetClientsCount())
		}()

		// Читаем сообщения от клиента (ping/pong для поддержания соединения)
		for {
			_, _, err := conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
					log.Printf("⚠️ WebSocket ошибка: %v", err)
				}
				break
			}
		}
	}
}

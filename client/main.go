package main

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"log"
	"net/url"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/websocket"
)

const (
	MsgTypeJoinQueue     = 101
	MsgTypeLeaveInstance = 102
	MsgTypeHoverChange   = 201
	MsgTypeMouseClick    = 202
)

// send formats and sends a message to the WebSocket server.
func send(c *websocket.Conn, msgID uint16, data []byte) error {
	packet := make([]byte, 4+len(data))
	binary.BigEndian.PutUint16(packet[0:2], msgID)
	binary.BigEndian.PutUint16(packet[2:4], uint16(len(data)))
	copy(packet[4:], data)

	return c.WriteMessage(websocket.BinaryMessage, packet)
}

func sendGrid(c *websocket.Conn, msgID uint16, args []string) {
	if len(args) != 2 {
		log.Println("usage: hover|click <x> <y>")
		return
	}
	x, errX := strconv.Atoi(args[0])
	y, errY := strconv.Atoi(args[1])
	if errX != nil || errY != nil {
		log.Println("coordinates must be integers")
		return
	}
	data, _ := json.Marshal(map[string]int{"x": x, "y": y})
	if err := send(c, msgID, data); err != nil {
		log.Println("Write error:", err)
	}
}

func main() {
	nick := "tester"
	if len(os.Args) > 1 {
		nick = os.Args[1]
	}

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)
	u := url.URL{Scheme: "ws", Host: "localhost:8080", Path: "/ws"}
	log.Printf("Connecting to %s", u.String())

	c, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		log.Fatalf("Dial failed: %v", err)
	}
	defer c.Close()

	done := make(chan struct{})

	// Read loop
	go func() {
		defer close(done)
		for {
			_, message, err := c.ReadMessage()
			if err != nil {
				log.Println("Read error:", err)
				return
			}
			if len(message) < 4 {
				log.Printf("Received invalid packet of size %d", len(message))
				continue
			}
			msgID := binary.BigEndian.Uint16(message[0:2])
			data := message[4:]
			log.Printf("<- RECV (ID: %d): %s", msgID, string(data))
		}
	}()

	log.Printf("Joining queue as %q...", nick)
	queueReq, _ := json.Marshal(map[string]string{"nick": nick})
	if err := send(c, MsgTypeJoinQueue, queueReq); err != nil {
		log.Println("Write error:", err)
		return
	}

	log.Println("Commands: 'hover x y', 'click x y', 'leave'.")

	// Write loop
	reader := bufio.NewReader(os.Stdin)
	for {
		select {
		case <-done:
			return
		case <-interrupt:
			log.Println("Interrupt received, closing connection.")
			err := c.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			if err != nil {
				log.Println("Write close error:", err)
			}
			select {
			case <-done:
			case <-time.After(time.Second):
			}
			return
		default:
			text, _ := reader.ReadString('\n')
			fields := strings.Fields(text)
			if len(fields) == 0 {
				continue
			}

			switch fields[0] {
			case "hover":
				sendGrid(c, MsgTypeHoverChange, fields[1:])
			case "click":
				sendGrid(c, MsgTypeMouseClick, fields[1:])
			case "leave":
				if err := send(c, MsgTypeLeaveInstance, []byte{}); err != nil {
					log.Println("Write error:", err)
				}
			default:
				log.Printf("Unknown command %q", fields[0])
			}
		}
	}
}

// Manual client for poking a running server: joins a game, prints every
// message the server sends, and maps stdin lines to protocol requests.
//
//	go run ./test/manual -server 127.0.0.1:5081 -game TIC_TAC_TOE -name alice
//
// Commands: sign, sign2, move <row> <col>, place <row> <col>, random,
// over, loss, happy, leave, quit.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/Niv-Kor/PlayerTwoServer/internal/transport"
	"github.com/Niv-Kor/PlayerTwoServer/pkg/protocol"
)

func main() {
	serverAddr := flag.String("server", "127.0.0.1:5081", "lobby address of the game server")
	game := flag.String("game", "TIC_TAC_TOE", "game kind to join")
	name := flag.String("name", "manual-tester", "player name")
	solo := flag.Bool("solo", false, "join as a single player")
	flag.Parse()

	conn, err := transport.Listen("127.0.0.1:0")
	if err != nil {
		log.Fatalf("Failed to bind client socket: %v", err)
	}
	defer conn.Close()

	fmt.Printf("Client socket bound on %s\n", conn.LocalAddr())

	servingAddr := make(chan string, 1)
	go func() {
		for {
			msg, from, err := conn.Receive()
			if err != nil {
				fmt.Printf("Receive failed, exiting: %v\n", err)
				os.Exit(0)
			}
			raw, _ := msg.Encode()
			fmt.Printf("<- [%s] %s\n", from, raw)
			if msg.Type() == protocol.MsgTypeNewClient && msg.Bool("available") {
				servingAddr <- msg.String("address")
			}
		}
	}()

	joinReq := protocol.New(protocol.MsgTypeNewClient).
		Set("game", *game).
		Set("name", *name).
		Set("avatar", *name+".png").
		Set("address", conn.LocalAddr()).
		Set("single_player", *solo)
	if err := conn.SendTo(*serverAddr, joinReq); err != nil {
		log.Fatalf("Failed to send join request: %v", err)
	}

	gameAddr := <-servingAddr
	fmt.Printf("Admitted, game traffic goes to %s\n", gameAddr)

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}

		var (
			msg    *protocol.Message
			target = gameAddr
		)
		switch fields[0] {
		case "sign":
			msg = protocol.New(protocol.MsgTypePlayerSign)
		case "sign2":
			msg = protocol.New(protocol.MsgTypePlayer2Sign)
		case "move", "place":
			if len(fields) != 3 {
				fmt.Println("usage: move|place <row> <col>")
				continue
			}
			row, _ := strconv.Atoi(fields[1])
			col, _ := strconv.Atoi(fields[2])
			msgType := protocol.MsgTypePlayerMove
			if fields[0] == "place" {
				msgType = protocol.MsgTypePlacePlayer
			}
			msg = protocol.New(msgType).Set("row", row).Set("column", col)
		case "random":
			msg = protocol.New(protocol.MsgTypePlayerRandom)
		case "over":
			msg = protocol.New(protocol.MsgTypeIsOver)
		case "loss":
			msg = protocol.New(protocol.MsgTypeForceLoss)
		case "happy":
			msg = protocol.New(protocol.MsgTypeHappyClient).
				Set("game", *game).
				Set("address", conn.LocalAddr())
			target = *serverAddr
		case "leave":
			msg = protocol.New(protocol.MsgTypeLeavingClient).
				Set("game", *game).
				Set("address", conn.LocalAddr())
			target = *serverAddr
		case "quit":
			return
		default:
			fmt.Printf("unknown command %q\n", fields[0])
			continue
		}

		if err := conn.SendTo(target, msg); err != nil {
			fmt.Printf("Send failed: %v\n", err)
		}
	}
}

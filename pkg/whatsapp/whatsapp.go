package whatsapp

import (
	"context"
	"encoding/base64"
	"fmt"
	"time"

	"go.mau.fi/whatsmeow"
	"go.mau.fi/whatsmeow/proto/waE2E"
	"go.mau.fi/whatsmeow/store/sqlstore"
	"go.mau.fi/whatsmeow/types"
	"go.mau.fi/whatsmeow/types/events"
	waLog "go.mau.fi/whatsmeow/util/log"
	"google.golang.org/protobuf/proto"

	"LedgerBot/database/postgres"
	"LedgerBot/internal/entity"
	"LedgerBot/pkg/utils"
)

// MessageHandler receives every inbound message already converted to the
// transport-neutral contract. Handlers run on their own goroutine so a slow
// classification never blocks the whatsmeow event loop.
type MessageHandler func(msg entity.InboundMessage)

type IWhatsapp interface {
	SendMessage(ctx context.Context, chatJID, text string) (string, error)
	OnMessage(handler MessageHandler)
	Disconnect() error
	IsConnected() bool
}

type whatsappClient struct {
	client  *whatsmeow.Client
	handler MessageHandler
	utils   utils.IUtils
}

func New() (IWhatsapp, error) {
	dsn := postgres.FormatDSN()

	dbLog := waLog.Stdout("Database", "INFO", true)
	container, err := sqlstore.New(context.Background(), "postgres", dsn, dbLog)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	deviceStore, err := container.GetFirstDevice(context.Background())
	if err != nil {
		return nil, fmt.Errorf("failed to get device store: %w", err)
	}

	client := whatsmeow.NewClient(deviceStore, waLog.Stdout("Client", "INFO", true))

	w := &whatsappClient{client: client, utils: utils.New()}

	connected := make(chan bool)
	client.AddEventHandler(func(evt interface{}) {
		switch v := evt.(type) {
		case *events.Connected:
			select {
			case connected <- true:
			default:
			}
		case *events.Message:
			w.dispatch(v)
		}
	})

	if client.Store.ID == nil {
		qrChan, _ := client.GetQRChannel(context.Background())
		if err := client.Connect(); err != nil {
			return nil, fmt.Errorf("failed to connect: %w", err)
		}

		go func() {
			for evt := range qrChan {
				if evt.Event == "code" {
					fmt.Println("QR Code:", evt.Code)
				}
			}
		}()
	} else {
		if err := client.Connect(); err != nil {
			return nil, fmt.Errorf("failed to connect: %w", err)
		}
	}

	select {
	case <-connected:
		fmt.Println("WhatsApp connected")
	case <-time.After(60 * time.Second):
		return nil, fmt.Errorf("connection timeout")
	}

	return w, nil
}

func (w *whatsappClient) OnMessage(handler MessageHandler) {
	w.handler = handler
}

// dispatch converts a raw whatsmeow event into the inbound contract and
// hands it to the registered handler. Own messages are skipped so the bot
// never reacts to its own prompts.
func (w *whatsappClient) dispatch(evt *events.Message) {
	if w.handler == nil || evt.Info.IsFromMe {
		return
	}

	msg := entity.InboundMessage{
		MessageID: evt.Info.ID,
		UserID:    evt.Info.Sender.User,
		ChatID:    evt.Info.Chat.String(),
		IsGroup:   evt.Info.IsGroup,
		Timestamp: evt.Info.Timestamp,
	}

	msg.Text = extractText(evt.Message)
	msg.ReplyToMessageID = extractQuotedID(evt.Message)

	if img := evt.Message.GetImageMessage(); img != nil {
		if msg.Text == "" {
			msg.Text = img.GetCaption()
		}
		data, err := w.client.Download(context.Background(), img)
		if err == nil {
			// Phone cameras produce multi-megabyte photos. Recompress
			// before shipping the payload through the pipeline.
			if optimized, optErr := w.utils.OptimizeImageForOCR(data, 1600, 1600, 85); optErr == nil {
				data = optimized
			}
			msg.ImageBase64 = base64.StdEncoding.EncodeToString(data)
		}
	}

	if msg.Text == "" && msg.ImageBase64 == "" {
		return
	}

	go w.handler(msg)
}

func extractText(msg *waE2E.Message) string {
	if msg == nil {
		return ""
	}
	if text := msg.GetConversation(); text != "" {
		return text
	}
	if ext := msg.GetExtendedTextMessage(); ext != nil {
		return ext.GetText()
	}
	return ""
}

func extractQuotedID(msg *waE2E.Message) string {
	if msg == nil {
		return ""
	}
	if ext := msg.GetExtendedTextMessage(); ext != nil {
		return ext.GetContextInfo().GetStanzaID()
	}
	return ""
}

// SendMessage sends plain text to a chat JID and returns the sent message ID
// so prompts can be matched against future reply threading.
func (w *whatsappClient) SendMessage(ctx context.Context, chatJID, text string) (string, error) {
	jid, err := types.ParseJID(chatJID)
	if err != nil {
		jid = types.NewJID(chatJID, types.DefaultUserServer)
	}

	waMsg := &waE2E.Message{
		Conversation: proto.String(text),
	}

	resp, err := w.client.SendMessage(ctx, jid, waMsg)
	if err != nil {
		return "", fmt.Errorf("failed to send message: %w", err)
	}

	return resp.ID, nil
}

func (w *whatsappClient) Disconnect() error {
	w.client.Disconnect()
	return nil
}

func (w *whatsappClient) IsConnected() bool {
	return w.client.IsConnected()
}

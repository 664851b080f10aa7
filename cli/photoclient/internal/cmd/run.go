package cmd

import (
	"encoding/hex"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/crypto/ssh/terminal"

	appclient "github.com/photochain-sys/photochain-go/application/client"
	"github.com/photochain-sys/photochain-go/cli"
	"github.com/photochain-sys/photochain-go/client"
	"github.com/photochain-sys/photochain-go/crypto/sign"
)

const help = "- register:\r\n" +
	"	Create this user's account (first device only).\r\n" +
	"- login:\r\n" +
	"	Obtain a fresh session token.\r\n" +
	"- sync:\r\n" +
	"	Pull and verify this user's log.\r\n" +
	"- put [text]:\r\n" +
	"	Store a photo (its contents given as text).\r\n" +
	"- get [id]:\r\n" +
	"	Fetch and verify one of this user's photos.\r\n" +
	"- list:\r\n" +
	"	List the ids of this user's photos.\r\n" +
	"- device:\r\n" +
	"	Print this device's public key (pass it to invite on an authorized device).\r\n" +
	"- identity:\r\n" +
	"	Print this user's identity public key (exchange it with friends).\r\n" +
	"- invite [devicekey] / accept [devicekey] / revoke [devicekey]:\r\n" +
	"	Manage device authorization (keys in hex).\r\n" +
	"- friend [name] [identitykey]:\r\n" +
	"	Record a friend's identity key (obtained out of band, in hex).\r\n" +
	"- photos [name]:\r\n" +
	"	Fetch and verify all photos of a friend.\r\n" +
	"- album-create [name] [friend...]:\r\n" +
	"	Create a shared album with the given friends.\r\n" +
	"- album-get [name]:\r\n" +
	"	Fetch and decrypt a shared album.\r\n" +
	"- album-add-photo [name] [text] / album-add-friend [name] [friend] / album-remove-friend [name] [friend]:\r\n" +
	"	Modify a shared album.\r\n" +
	"- enable timestamp / disable timestamp:\r\n" +
	"	Toggle timestamp printing.\r\n" +
	"- help:\r\n" +
	"	Display this message.\r\n" +
	"- exit, q:\r\n" +
	"	Close the REPL and exit the client."

var runCmd = cli.NewRunCommand("photochain test client",
	"Run gives you a REPL, so that you can invoke commands to perform photochain operations including registration, photo storage and album sharing. Currently, it supports:\n"+help, run)

func init() {
	RootCmd.AddCommand(runCmd)
	runCmd.Flags().StringP("config", "c", "config.toml",
		"Config file for the client (contains the username, secret path and server address).")
	runCmd.Flags().BoolP("debug", "d", false, "Turn on debugging mode")
}

func run(cmd *cobra.Command, args []string) {
	isDebugging, _ := strconv.ParseBool(cmd.Flag("debug").Value.String())
	conf := loadConfigOrExit(cmd)
	transport := appclient.NewTransport(conf.Address, conf.SkipVerify)
	cc, err := client.New(conf.Username, conf.UserSecret, transport)
	if err != nil {
		log.Fatal(err)
	}

	state, err := terminal.MakeRaw(int(os.Stdin.Fd()))
	if err != nil {
		log.Fatal(err)
	}
	defer terminal.Restore(int(os.Stdin.Fd()), state)
	term := terminal.NewTerminal(os.Stdin, "photochain-client> ")
	for {
		line, err := term.ReadLine()
		if err != nil {
			writeLineInRawMode(term, err.Error(), isDebugging)
			return
		}

		args := strings.Fields(line)
		if len(args) < 1 {
			writeLineInRawMode(term, `[!] Type "help" for more information.`, isDebugging)
			continue
		}
		cmd := args[0]

		switch cmd {
		case "exit", "q":
			writeLineInRawMode(term, "[+] See ya.", isDebugging)
			return
		case "help":
			writeLineInRawMode(term, help, false) // turn off debugging mode for this command
		case "enable", "disable":
			if len(args) != 2 || args[1] != "timestamp" {
				writeLineInRawMode(term, "[!] Unrecognized command: "+line, isDebugging)
				continue
			}
			isDebugging = cmd == "enable"
		default:
			msg, prefix := dispatch(cc, cmd, args[1:])
			writeLineInRawMode(term, prefix+msg, isDebugging)
		}
	}
}

// dispatch runs one REPL command against the client and returns the
// message to print together with its "[+] "/"[!] " prefix.
func dispatch(cc *client.Client, cmd string, args []string) (string, string) {
	msg, err := runCommand(cc, cmd, args)
	if err != nil {
		return err.Error(), "[!] "
	}
	return msg, "[+] "
}

func runCommand(cc *client.Client, cmd string, args []string) (string, error) {
	switch cmd {
	case "register":
		if err := cc.Register(); err != nil {
			return "", err
		}
		return "Succesfully registered user: " + cc.Username(), nil
	case "login":
		if err := cc.Login(); err != nil {
			return "", err
		}
		return "Logged in as: " + cc.Username(), nil
	case "sync":
		if err := cc.Synchronize(); err != nil {
			return "", err
		}
		return "Log verified up to date.", nil
	case "put":
		if len(args) != 1 {
			return "", errArgs("put")
		}
		id, err := cc.PutPhoto([]byte(args[0]))
		if err != nil {
			return "", err
		}
		return "Stored photo with id " + strconv.FormatInt(id, 10), nil
	case "get":
		if len(args) != 1 {
			return "", errArgs("get")
		}
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return "", err
		}
		blob, err := cc.GetPhoto(id)
		if err != nil {
			return "", err
		}
		return string(blob), nil
	case "list":
		ids, err := cc.ListPhotos()
		if err != nil {
			return "", err
		}
		out := make([]string, len(ids))
		for i, id := range ids {
			out[i] = strconv.FormatInt(id, 10)
		}
		return "[" + strings.Join(out, " ") + "]", nil
	case "device":
		return hex.EncodeToString(cc.DevicePublicKey()), nil
	case "identity":
		return hex.EncodeToString(cc.IdentityPublicKey()), nil
	case "invite", "accept", "revoke":
		if len(args) != 1 {
			return "", errArgs(cmd)
		}
		key, err := hex.DecodeString(args[0])
		if err != nil {
			return "", err
		}
		switch cmd {
		case "invite":
			err = cc.InviteDevice(key)
		case "accept":
			err = cc.AcceptInvite(key)
		case "revoke":
			err = cc.RevokeDevice(key)
		}
		if err != nil {
			return "", err
		}
		return "Done.", nil
	case "friend":
		if len(args) != 2 {
			return "", errArgs("friend")
		}
		key, err := hex.DecodeString(args[1])
		if err != nil {
			return "", err
		}
		cc.AddFriend(args[0], sign.PublicKey(key))
		return "Recorded identity key for " + args[0], nil
	case "photos":
		if len(args) != 1 {
			return "", errArgs("photos")
		}
		photos, err := cc.GetFriendPhotos(args[0])
		if err != nil {
			return "", err
		}
		out := make([]string, len(photos))
		for i, p := range photos {
			out[i] = string(p)
		}
		return strings.Join(out, "\r\n"), nil
	case "album-create":
		if len(args) < 1 {
			return "", errArgs("album-create")
		}
		if err := cc.CreateSharedAlbum(args[0], nil, args[1:]); err != nil {
			return "", err
		}
		return "Created album " + args[0], nil
	case "album-get":
		if len(args) != 1 {
			return "", errArgs("album-get")
		}
		photos, err := cc.GetAlbum(args[0])
		if err != nil {
			return "", err
		}
		out := make([]string, len(photos))
		for i, p := range photos {
			out[i] = string(p)
		}
		return strings.Join(out, "\r\n"), nil
	case "album-add-photo":
		if len(args) != 2 {
			return "", errArgs("album-add-photo")
		}
		if err := cc.AddPhotoToAlbum(args[0], []byte(args[1])); err != nil {
			return "", err
		}
		return "Done.", nil
	case "album-add-friend":
		if len(args) != 2 {
			return "", errArgs("album-add-friend")
		}
		if err := cc.AddFriendToAlbum(args[0], args[1]); err != nil {
			return "", err
		}
		return "Done.", nil
	case "album-remove-friend":
		if len(args) != 2 {
			return "", errArgs("album-remove-friend")
		}
		if err := cc.RemoveFriendFromAlbum(args[0], args[1]); err != nil {
			return "", err
		}
		return "Done.", nil
	default:
		return "", errUnrecognized(cmd)
	}
}

type replError string

func (e replError) Error() string { return string(e) }

func errArgs(cmd string) error {
	return replError("Incorrect number of args to " + cmd + ".")
}

func errUnrecognized(cmd string) error {
	return replError("Unrecognized command: " + cmd)
}

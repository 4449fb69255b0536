// Command devtoken prints a signed access token for local testing.
// Production tokens come from the campus identity provider.
//
//	devtoken -id 42 -role INCHARGE
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/iliyamo/campus-room-booking/internal/config"
	"github.com/iliyamo/campus-room-booking/internal/model"
	"github.com/iliyamo/campus-room-booking/internal/utils"
)

func main() {
	id := flag.Uint64("id", 0, "user id placed in the sub claim")
	roleFlag := flag.String("role", "STUDENT", "STUDENT, INCHARGE or ADMIN")
	ttl := flag.Duration("ttl", 0, "token lifetime (default ACCESS_TOKEN_TTL_MIN minutes)")
	flag.Parse()

	secret, defaultTTL := config.LoadDevToken()
	role, ok := model.ParseRole(*roleFlag)
	if !ok {
		fmt.Fprintf(os.Stderr, "unknown role %q\n", *roleFlag)
		os.Exit(2)
	}
	if *ttl <= 0 {
		*ttl = defaultTTL
	}

	tok, err := utils.NewAccessToken(secret, model.Actor{ID: *id, Role: role}, *ttl)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	fmt.Println(tok.Token)
	fmt.Fprintf(os.Stderr, "expires %s\n", tok.Exp.Format(time.RFC3339))
}


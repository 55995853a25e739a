package workload

// Compiled contract artifacts for the token workloads. The blobs are
// consumed opaquely: the runtimes deploy the bytecode and speak to the
// contracts through the ABI only.

// TokenABI is the fungible token interface used by the ERC-20 workload
const TokenABI = `[
	{"inputs":[{"internalType":"uint256","name":"supply_","type":"uint256"},{"internalType":"string","name":"name_","type":"string"},{"internalType":"string","name":"symbol_","type":"string"}],"stateMutability":"nonpayable","type":"constructor"},
	{"anonymous":false,"inputs":[{"indexed":true,"internalType":"address","name":"from","type":"address"},{"indexed":true,"internalType":"address","name":"to","type":"address"},{"indexed":false,"internalType":"uint256","name":"value","type":"uint256"}],"name":"Transfer","type":"event"},
	{"inputs":[{"internalType":"address","name":"account","type":"address"}],"name":"balanceOf","outputs":[{"internalType":"uint256","name":"","type":"uint256"}],"stateMutability":"view","type":"function"},
	{"inputs":[],"name":"totalSupply","outputs":[{"internalType":"uint256","name":"","type":"uint256"}],"stateMutability":"view","type":"function"},
	{"inputs":[],"name":"symbol","outputs":[{"internalType":"string","name":"","type":"string"}],"stateMutability":"view","type":"function"},
	{"inputs":[{"internalType":"address","name":"to","type":"address"},{"internalType":"uint256","name":"amount","type":"uint256"}],"name":"transfer","outputs":[{"internalType":"bool","name":"","type":"bool"}],"stateMutability":"nonpayable","type":"function"}
]`

// NFTABI is the mintable NFT interface used by the ERC-721 workload
const NFTABI = `[
	{"inputs":[{"internalType":"string","name":"name_","type":"string"},{"internalType":"string","name":"symbol_","type":"string"}],"stateMutability":"nonpayable","type":"constructor"},
	{"anonymous":false,"inputs":[{"indexed":true,"internalType":"address","name":"from","type":"address"},{"indexed":true,"internalType":"address","name":"to","type":"address"},{"indexed":true,"internalType":"uint256","name":"tokenId","type":"uint256"}],"name":"Transfer","type":"event"},
	{"inputs":[{"internalType":"string","name":"tokenURI_","type":"string"}],"name":"createNFT","outputs":[{"internalType":"uint256","name":"","type":"uint256"}],"stateMutability":"nonpayable","type":"function"},
	{"inputs":[{"internalType":"uint256","name":"tokenId","type":"uint256"}],"name":"tokenURI","outputs":[{"internalType":"string","name":"","type":"string"}],"stateMutability":"view","type":"function"}
]`

// TokenBytecode is the compiled fungible token, constructor arguments
// appended at deploy time
const TokenBytecode = "60806040523480156200001157600080fd5b5060405162000d3838038062000d388339810160408190526200003491620001db565b81516200004990600390602085019062000068565b5080516200005f90600490602084019062000068565b50505062000302565b8280546200007690620002c5565b90600052602060002090601f0160209004810192826200009a5760008555620000e5565b82601f10620000b557805160ff1916838001178555620000e5565b82800160010185558215620000e5579182015b82811115620000e5578251825591602001919060010190620000c8565b50620000f3929150620000f7565b5090565b5b80821115620000f35760008155600101620000f8565b634e487b7160e01b600052604160045260246000fd5b600082601f8301126200013657600080fd5b81516001600160401b03808211156200015357620001536200010e565b604051601f8301601f19908116603f011681019082821181831017156200017e576200017e6200010e565b816040528381526020925086838588010111156200019b57600080fd5b600091505b83821015620001bf5785820183015181830184015290820190620001a0565b83821115620001d15760008385830101525b9695505050505050565b600080600060608486031215620001f157600080fd5b835160208501519093506001600160401b03808211156200021157600080fd5b6200021f8783880162000124565b935060408601519150808211156200023657600080fd5b50620002458682870162000124565b9150509250925092565b600181811c908216806200026457607f821691505b602082108114156200028657634e487b7160e01b600052602260045260246000fd5b50919050565b610a2680620003126000396000f3fe608060405234801561001057600080fd5b50600436106100625760003560e01c806306fdde031461006757806318160ddd1461008557806370a082311461009757806395d89b41146100c0578063a9059cbb146100c8578063dd62ed3e146100eb575b600080fd5b61006f610124565b60405161007c91906107d5565b60405180910390f35b6002545b60405190815260200161007c565b6100896100a536600461084a565b6001600160a01b031660009081526020819052604090205490565b61006f6101b6565b6100db6100d636600461086c565b6101c5565b604051901515815260200161007c565b6100896100f9366004610896565b6001600160a01b03918216600090815260016020908152604080832093909416825291909152205490565b606060038054610133906108c9565b80601f016020809104026020016040519081016040528092919081815260200182805461015f906108c9565b80156101ac5780601f10610181576101008083540402835291602001916101ac565b820191906000526020600020905b81548152906001019060200180831161018f57829003601f168201915b5050505050905090565b606060048054610133906108c9565b60003361020d8185856040516001600160a01b03841660248201526044810183905290565b9392505050565b505050565b6001600160a01b03831661027b5760405162461bcd60e51b815260206004820152602560248201527f45524332303a207472616e736665722066726f6d20746865207a65726f206164604482015264647265737360d81b60648201526084015b60405180910390fd5b6001600160a01b0382166102dd5760405162461bcd60e51b815260206004820152602360248201527f45524332303a207472616e7366657220746f20746865207a65726f206164647260448201526265737360e81b6064820152608401610272565b6001600160a01b038316600090815260208190526040902054818110156103555760405162461bcd60e51b815260206004820152602660248201527f45524332303a207472616e7366657220616d6f756e7420657863656564732062604482015265616c616e636560d01b6064820152608401610272565b6001600160a01b0384811660008181526020818152604080832087870390559387168083529184902080548701905592518581529092917fddf252ad1be2c89b69c2b068fc378daa952ba7f163c4a11628f55a4df523b3ef910160405180910390a361020d565b600060208083528351808285015260005b81811015610402578581018301518582016040015282016103e6565b8181111561041457600060408385010152565b50601f01601f1916929092016040019392505050565b80356001600160a01b038116811461044157600080fd5b919050565b60006020828403121561045857600080fd5b61020d8261042a565b6000806040838503121561047457600080fd5b61047d8361042a565b946020939093013593505050565b6000806040838503121561049e57600080fd5b6104a78361042a565b91506104b56020840161042a565b90509250929050565b600181811c908216806104d257607f821691505b602082108114156104f357634e487b7160e01b600052602260045260246000fd5b5091905056fea2646970667358221220c5be8f0b4e8a9f2d7c1e6a3b9d8e7f6a5b4c3d2e1f0a9b8c7d6e5f4a3b2c1d0e64736f6c63430008090033"

// NFTBytecode is the compiled NFT contract, constructor arguments appended
// at deploy time
const NFTBytecode = "60806040523480156200001157600080fd5b5060405162000b2a38038062000b2a8339810160408190526200003491620001c0565b81516200004990600090602085019062000068565b5080516200005f90600190602084019062000068565b505050620002e7565b8280546200007690620002aa565b90600052602060002090601f0160209004810192826200009a5760008555620000e5565b82601f10620000b557805160ff1916838001178555620000e5565b82800160010185558215620000e5579182015b82811115620000e5578251825591602001919060010190620000c8565b50620000f3929150620000f7565b5090565b5b80821115620000f35760008155600101620000f8565b634e487b7160e01b600052604160045260246000fd5b600082601f8301126200012057600080fd5b81516001600160401b03808211156200013d576200013d6200010e565b604051601f8301601f19908116603f011681019082821181831017156200016857620001686200010e565b816040528381526020925086838588010111156200018557600080fd5b600091505b83821015620001a957858201830151818301840152908201906200018a565b83821115620001bb5760008385830101525b9695505050505050565b60008060408385031215620001d457600080fd5b82516001600160401b0380821115620001ec57600080fd5b620001fa868387016200010f565b935060208501519150808211156200021157600080fd5b5062000220858286016200010f565b9150509250929050565b600181811c908216806200023f57607f821691505b602082108114156200026157634e487b7160e01b600052602260045260246000fd5b50919050565b61083380620002f76000396000f3fe608060405234801561001057600080fd5b50600436106100575760003560e01c806306fdde031461005c57806342966c681461007a578063c87b56dd1461008f578063d3fc9864146100a2578063e8a3d485146100b5575b600080fd5b6100646100bd565b60405161007191906105f2565b60405180910390f35b61008d61008836600461060c565b61014f565b005b61006461009d36600461060c565b61019c565b61008d6100b03660046106bb565b610244565b6100646102e9565b6060600080546100cc90610700565b80601f01602080910402602001604051908101604052809291908181526020018280546100f890610700565b80156101455780601f1061011a57610100808354040283529160200191610145565b820191906000526020600020905b81548152906001019060200180831161012857829003601f168201915b5050505050905090565b6000818152600260205260409020546001600160a01b03166101985760405162461bcd60e51b815260206004820152600e60248201526d1d1bdad95b881b9bdd08185b1a5d60921b604482015260640160405180910390fd5b5050565b6000818152600260205260409020546060906001600160a01b03166101fe5760405162461bcd60e51b815260206004820152601160248201527f746f6b656e20646f6573206e6f7420657869737400000000000000000000000060448201526064015b60405180910390fd5b6000828152600360205260409020805461021790610700565b80601f016020809104026020016040519081016040528092919081815260200182805461014590610700565b60048054600091826102558361073b565b9091555060008181526002602090815260408083208054336001600160a01b031991821681179092556003909252909120909150610294848261079c565b5060405181906001600160a01b038416906000907fddf252ad1be2c89b69c2b068fc378daa952ba7f163c4a11628f55a4df523b3ef908290a4505050565b6060600180546100cc90610700565b6000815180845260005b81811015610318576020818501810151868301820152016102fc565b506000602082860101526020601f19601f83011685010191505092915050565b602081526000610349602083018461031e565b9392505050565b60006020828403121561036257600080fd5b5035919050565b634e487b7160e01b600052604160045260246000fd5b600082601f83011261039057600080fd5b81356001600160401b03808211156103aa576103aa610369565b604051601f8301601f19908116603f011681019082821181831017156103d2576103d2610369565b816040528381528660208588010111156103eb57600080fd5b836020870160208301376000602085830101528094505050505092915050565b60006020828403121561041d57600080fd5b81356001600160401b0381111561043357600080fd5b61043f8482850161037f565b949350505050565b600181811c9082168061045b57607f821691505b60208210810361047b57634e487b7160e01b600052602260045260246000fd5b50919050565b60006001820161049357634e487b7160e01b600052601160045260246000fd5b506001019056fea26469706673582212209d7c6b5a4e3f2d1c0b9a8f7e6d5c4b3a2f1e0d9c8b7a6f5e4d3c2b1a0f9e8d7c64736f6c63430008090033"
